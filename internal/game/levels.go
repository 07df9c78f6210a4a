package game

// levelThresholds[i] is the total XP required to hold level i+1. The curve
// keeps the per-level cost of level*100: 100 XP for level 2, then 200 more
// for level 3 and so on.
var levelThresholds = [...]int{
	0,    // 1
	100,  // 2
	300,  // 3
	600,  // 4
	1000, // 5
	1500, // 6
	2100, // 7
	2800, // 8
	3600, // 9
	4500, // 10
}

// lastLevelStep is the XP cost of each level past the table.
const lastLevelStep = 900

// LevelFor возвращает уровень для накопленного XP. Функция монотонна и
// определена для любого неотрицательного XP: за пределами таблицы каждый
// следующий уровень стоит столько же, сколько последний табличный шаг.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	last := len(levelThresholds) - 1
	if xp >= levelThresholds[last] {
		return last + 1 + (xp-levelThresholds[last])/lastLevelStep
	}
	level := 1
	for i, threshold := range levelThresholds {
		if xp < threshold {
			break
		}
		level = i + 1
	}
	return level
}

// ThresholdFor возвращает суммарный XP, с которого начинается уровень.
func ThresholdFor(level int) int {
	if level <= 1 {
		return 0
	}
	if level <= len(levelThresholds) {
		return levelThresholds[level-1]
	}
	last := len(levelThresholds) - 1
	return levelThresholds[last] + (level-1-last)*lastLevelStep
}

// Progress возвращает XP, набранный внутри текущего уровня, и стоимость
// перехода на следующий. Используется для отображения профиля.
func Progress(xp int) (into, needed int) {
	level := LevelFor(xp)
	base := ThresholdFor(level)
	return xp - base, ThresholdFor(level+1) - base
}
