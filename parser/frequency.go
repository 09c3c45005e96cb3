package parser

// frequency is the expected hit count per event shape, measured over a
// sample of real battle logs. Unlisted shapes count as zero.
var frequency = map[string]int{
	Debuff:            13619,
	PlayerDodge:       11264,
	PlayerAttack:      10311,
	Spawn:             8383,
	Death:             8383,
	PlayerSkill:       6326,
	EnemyBasic:        5235,
	Drop:              4580,
	EffectRestore:     4316,
	CooldownExpire:    2065,
	SpiritShield:      1274,
	RoundStart:        1000,
	RoundEnd:          1000,
	Experience:        1000,
	CureRestore:       958,
	EnemySkillMiss:    851,
	PlayerBuff:        640,
	Resist:            558,
	PlayerItem:        465,
	ItemRestore:       413,
	EnemySkillSuccess: 374,
	DebuffExpire:      125,
	AutoSell:          117,
	Dispel:            96,
	SparkTrigger:      81,
	Proficiency:       29,
	EnemySkillAbsorb:  26,
	RiddleMaster:      14,
	RiddleRestore:     14,
	Gem:               1,
	Credits:           1,
}

// Frequency returns the expected hit count for an event shape.
func Frequency(name string) int {
	return frequency[name]
}
