package parser

import (
	"strings"

	"github.com/pithecene-io/battlelog/types"
)

// Event shape names.
const (
	PlayerAttack      = "PLAYER_ATTACK"
	PlayerMiss        = "PLAYER_MISS"
	PlayerItem        = "PLAYER_ITEM"
	PlayerSkill       = "PLAYER_SKILL"
	PlayerDodge       = "PLAYER_DODGE"
	EnemyBasic        = "ENEMY_BASIC"
	EnemySkillAbsorb  = "ENEMY_SKILL_ABSORB"
	EnemySkillMiss    = "ENEMY_SKILL_MISS"
	EnemySkillSuccess = "ENEMY_SKILL_SUCCESS"
	PlayerBuff        = "PLAYER_BUFF"
	RiddleRestore     = "RIDDLE_RESTORE"
	EffectRestore     = "EFFECT_RESTORE"
	ItemRestore       = "ITEM_RESTORE"
	CureRestore       = "CURE_RESTORE"
	SpiritShield      = "SPIRIT_SHIELD"
	SparkTrigger      = "SPARK_TRIGGER"
	Dispel            = "DISPEL"
	CooldownExpire    = "COOLDOWN_EXPIRE"
	BuffExpire        = "BUFF_EXPIRE"
	Resist            = "RESIST"
	Debuff            = "DEBUFF"
	DebuffExpire      = "DEBUFF_EXPIRE"
	RoundStart        = "ROUND_START"
	RoundEnd          = "ROUND_END"
	Flee              = "FLEE"
	Spawn             = "SPAWN"
	Death             = "DEATH"
	RiddleMaster      = "RIDDLE_MASTER"
	Gem               = "GEM"
	Credits           = "CREDITS"
	Drop              = "DROP"
	Proficiency       = "PROFICIENCY"
	Experience        = "EXPERIENCE"
	AutoSalvage       = "AUTO_SALVAGE"
	AutoSell          = "AUTO_SELL"
	ClearBonus        = "CLEAR_BONUS"
	TokenBonus        = "TOKEN_BONUS"
	EventItem         = "EVENT_ITEM"
	MBUsage           = "MB_USAGE"
)

// Pattern fragments.
const (
	numPattern     = `\d+`
	floatPattern   = `\d+(?:\.\d*)?`
	wordsPattern   = `[\w\s\-]+`
	monsterPattern = `[\w\s\-+]+` // "New Game +" is a valid monster name
)

func group(name, pattern string) string {
	return "(?P<" + name + ">" + pattern + ")"
}

func num(name string) string   { return group(name, numPattern) }
func float(name string) string { return group(name, floatPattern) }
func words(name string) string { return group(name, wordsPattern) }
func monster() string          { return group("monster", monsterPattern) }

func mult(alternatives ...string) string {
	return group("multiplier_type", strings.Join(alternatives, "|"))
}

// anchored joins parts into a whole-line pattern.
func anchored(parts ...string) string {
	return "^" + strings.Join(parts, "") + "$"
}

var (
	str    = types.StringTerm
	number = types.NumberTerm
)

// enemySpell is the shared "<monster> casts|uses <spell>" prefix.
var enemySpell = monster() + ` ` + group("spell_verb", "casts|uses") + ` ` + words("spell")

var enemySpellFields = Fields{
	"monster":    str(),
	"spell_verb": str(),
	"spell":      str(),
}

func with(base Fields, extra Fields) Fields {
	out := make(Fields, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// targetsPlayer rejects player attacks whose target is the player, which
// are enemy attacks.
func targetsPlayer(target string) bool {
	return strings.HasPrefix(target, "you")
}

// namesMonster rejects buff expiries that are really debuff expiries
// ("The effect X on <monster> has expired.").
func namesMonster(effect string) bool {
	return strings.Contains(effect, " on ")
}

// Catalog returns a fresh copy of every known event parser in declaration
// order. Parsers are immutable and shared between copies.
func Catalog() []*EventParser {
	out := make([]*EventParser, len(catalog))
	copy(out, catalog)
	return out
}

var catalog = []*EventParser{
	// Actions
	MustNew(PlayerAttack,
		anchored(words("spell"), ` `, mult("hits", "crits", "blasts"), ` `, monster(),
			` for `, num("value"), ` (?:`, group("damage_type", wordsPattern), ` )?damage\.?`),
		Fields{
			"spell":           str(),
			"multiplier_type": str(),
			"monster":         str(),
			"damage_type":     str().Optional(),
			"value":           number(),
		},
		WithReject("monster", targetsPlayer),
	),
	MustNew(PlayerMiss,
		anchored(monster(), ` `, mult("parries"), ` your attack\.`),
		Fields{"monster": str(), "multiplier_type": str()},
	),
	MustNew(PlayerItem,
		anchored(`You use `, words("item"), `\.`),
		Fields{"item": str()},
	),
	MustNew(PlayerSkill,
		anchored(`You cast `, words("spell"), `\.`),
		Fields{"spell": str()},
	),
	MustNew(PlayerDodge,
		anchored(`You `, mult("evade", "parry"), ` the attack from `, monster(), `\.`),
		Fields{"multiplier_type": str(), "monster": str()},
	),

	MustNew(EnemyBasic,
		anchored(monster(), ` `, mult("hits", "crits"), ` you for `, num("value"), ` `,
			words("damage_type"), ` damage\.`),
		Fields{
			"monster":         str(),
			"multiplier_type": str(),
			"value":           number(),
			"damage_type":     str(),
		},
	),
	MustNew(EnemySkillAbsorb,
		anchored(enemySpell, `, but is `, mult("absorb"), `ed\. You gain `, num("mp"), ` Magic Points\.`),
		with(enemySpellFields, Fields{"multiplier_type": str(), "mp": number()}),
	),
	MustNew(EnemySkillMiss,
		anchored(enemySpell, `\. You `, mult("evade", "parry"), ` the attack\.`),
		with(enemySpellFields, Fields{"multiplier_type": str()}),
	),
	MustNew(EnemySkillSuccess,
		anchored(enemySpell, `, and `, mult("hits", "crits"), ` you for `, num("value"), ` `,
			words("damage_type"), ` damage(?: \(`, num("resist"), `% resisted\))?\.?`),
		with(enemySpellFields, Fields{
			"multiplier_type": str(),
			"value":           number(),
			"damage_type":     str(),
			"resist":          number().Optional(),
		}),
	),

	// Effects
	MustNew(PlayerBuff,
		anchored(`You gain the effect `, words("effect"), `\.`),
		Fields{"effect": str()},
	),
	MustNew(RiddleRestore,
		anchored(`Time Bonus: Recovered `, num("hp"), ` HP, `, num("mp"), ` MP and `, num("sp"), ` SP\.`),
		Fields{"hp": number(), "mp": number(), "sp": number()},
	),
	MustNew(EffectRestore,
		anchored(words("effect"), ` restores `, num("value"), ` points of `, words("type"), `\.`),
		Fields{"effect": str(), "value": number(), "type": str()},
	),
	MustNew(ItemRestore,
		anchored(`Recovered `, num("value"), ` points of `, words("type"), `\.`),
		Fields{"value": number(), "type": str()},
	),
	MustNew(CureRestore,
		anchored(`You are healed for `, num("value"), ` Health Points\.`),
		Fields{"value": number()},
	),

	MustNew(SpiritShield,
		anchored(`Your spirit shield absorbs `, num("damage"), ` points of damage from the attack into `,
			num("spirit_damage"), ` points of spirit damage\.`),
		Fields{"damage": number(), "spirit_damage": number()},
	),
	MustNew(SparkTrigger,
		anchored(`Your Spark of Life restores you from the brink of defeat\.`),
		Fields{},
	),
	MustNew(Dispel,
		anchored(`The effect `, words("effect"), ` was dispelled\.`),
		Fields{"effect": str()},
	),
	MustNew(CooldownExpire,
		anchored(`Cooldown expired for `, words("spell"), `\.?`),
		Fields{"spell": str()},
	),
	MustNew(BuffExpire,
		anchored(`The effect `, words("effect"), ` has expired\.`),
		Fields{"effect": str()},
		WithReject("effect", namesMonster),
	),
	MustNew(Resist,
		anchored(monster(), ` resists your spell\.`),
		Fields{"monster": str()},
	),
	MustNew(Debuff,
		anchored(monster(), ` gains the effect `, words("name"), `\.`),
		Fields{"monster": str(), "name": str()},
	),
	MustNew(DebuffExpire,
		anchored(`The effect `, words("effect"), ` on `, monster(), ` has expired\.`),
		Fields{"effect": str(), "monster": str()},
	),

	// Info
	MustNew(RoundStart,
		anchored(`Initializing `, group("battle_type", `[\w\s#]+`), ` \(Round `, num("current"),
			` / `, num("max"), `\) \.\.\.`),
		Fields{"battle_type": str(), "current": number(), "max": number()},
	),
	MustNew(RoundEnd,
		anchored(`You are Victorious!`),
		Fields{},
	),
	MustNew(Flee,
		anchored(`You have escaped from the battle\.`),
		Fields{},
	),
	MustNew(Spawn,
		anchored(`Spawned Monster `, group("letter", `[A-Z]`), `: MID=`, num("mid"), ` \(`, monster(),
			`\) LV=`, num("level"), ` HP=`, num("hp")),
		Fields{
			"letter":  str(),
			"mid":     number(),
			"monster": str(),
			"level":   number(),
			"hp":      number(),
		},
	),
	MustNew(Death,
		anchored(monster(), ` has been defeated\.`),
		Fields{"monster": str()},
	),
	MustNew(RiddleMaster,
		anchored(`The Riddlemaster listens.*`),
		Fields{},
	),

	MustNew(Gem,
		anchored(monster(), ` drops a `, words("type"), ` powerup!`),
		Fields{"monster": str(), "type": str()},
	),
	MustNew(Credits,
		anchored(`You gain `, num("value"), ` Credits!`),
		Fields{"value": number()},
	),
	MustNew(Drop,
		anchored(monster(), ` dropped \[`, group("item", `.*`), `\]`),
		Fields{"monster": str(), "item": str()},
	),
	MustNew(Proficiency,
		anchored(`You gain `, float("value"), ` points of `, words("type"), `\.`),
		Fields{"value": number(), "type": str()},
	),
	MustNew(Experience,
		anchored(`You gain `, num("value"), ` EXP!`),
		Fields{"value": number()},
	),
	MustNew(AutoSalvage,
		anchored(`A traveling salesmoogle salvages it into `, num("value"), `x \[`, words("item"), `\]`),
		Fields{"value": number(), "item": str()},
	),
	MustNew(AutoSell,
		anchored(`A traveling salesmoogle gives you \[`, num("value"), ` Credits\] for it\.`),
		Fields{"value": number()},
	),
	MustNew(ClearBonus,
		anchored(`Battle Clear Bonus! \[`, words("item"), `\]`),
		Fields{"item": str()},
	),
	MustNew(TokenBonus,
		anchored(`Arena Token Bonus! \[`, words("item"), `\]`),
		Fields{"item": str()},
	),
	MustNew(EventItem,
		anchored(`You found a \[`, words("item"), `\]`),
		Fields{"item": str()},
	),

	MustNew(MBUsage,
		anchored(`Used: `, group("value", `.*`)),
		Fields{"value": str()},
	),
}

// Event field names read outside this package.
const (
	FieldBattleType = "battle_type"
	FieldCurrent    = "current"
	FieldMax        = "max"
	FieldValue      = "value"
	FieldType       = "type"
	FieldHP         = "hp"
	FieldMonster    = "monster"
	FieldItem       = "item"
)

// RoundHash builds the battle hash described by a round start event.
// It returns false for any other event.
func RoundHash(ev *types.HvEvent) (types.LogHash, bool) {
	if !ev.Is(RoundStart) {
		return types.LogHash{}, false
	}
	battleType, ok1 := ev.Str(FieldBattleType)
	current, ok2 := ev.Num(FieldCurrent)
	maxRound, ok3 := ev.Num(FieldMax)
	if !ok1 || !ok2 || !ok3 {
		return types.LogHash{}, false
	}
	return types.LogHash{
		BattleType:   battleType,
		CurrentRound: int(current),
		MaxRound:     int(maxRound),
	}, true
}
