package game

// QuestDefinition описывает один квест из каталога: фиксированная награда
// XP и диапазон золота (включительно с обеих сторон).
type QuestDefinition struct {
	Key      string
	Name     string
	XPReward int
	GoldMin  int
	GoldMax  int
}

// Catalog — статический каталог квестов. Каталог не принадлежит ни одному
// пользователю и не меняется после создания.
type Catalog struct {
	quests []QuestDefinition
	byKey  map[string]QuestDefinition
}

// NewCatalog строит каталог из перечня квестов.
func NewCatalog(quests []QuestDefinition) Catalog {
	byKey := make(map[string]QuestDefinition, len(quests))
	for _, q := range quests {
		byKey[q.Key] = q
	}
	return Catalog{quests: quests, byKey: byKey}
}

// DefaultCatalog возвращает каталог квестов поиска работы.
func DefaultCatalog() Catalog {
	return NewCatalog([]QuestDefinition{
		{Key: "q_apply", Name: "Отклик", XPReward: 20, GoldMin: 1, GoldMax: 2},
		{Key: "q_study", Name: "Учёба", XPReward: 15, GoldMin: 0, GoldMax: 1},
		{Key: "q_resume", Name: "Резюме", XPReward: 30, GoldMin: 0, GoldMax: 1},
		{Key: "q_recruiter", Name: "Рекрутер", XPReward: 25, GoldMin: 1, GoldMax: 3},
		{Key: "q_project", Name: "Проект", XPReward: 50, GoldMin: 1, GoldMax: 3},
	})
}

// Get возвращает квест по ключу или ErrInvalidQuest.
func (c Catalog) Get(key string) (QuestDefinition, error) {
	q, ok := c.byKey[key]
	if !ok {
		return QuestDefinition{}, ErrInvalidQuest
	}
	return q, nil
}

// List возвращает квесты в порядке каталога.
func (c Catalog) List() []QuestDefinition {
	return append([]QuestDefinition(nil), c.quests...)
}
