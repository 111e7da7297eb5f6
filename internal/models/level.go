package models

import "fmt"

// Level is a go/no-go severity. Higher values are more severe.
type Level int

const (
	LevelGo Level = iota
	LevelCaution
	LevelNoGo
)

func (l Level) String() string {
	switch l {
	case LevelGo:
		return "go"
	case LevelCaution:
		return "caution"
	case LevelNoGo:
		return "no-go"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Label is the upper-case form shown to users.
func (l Level) Label() string {
	switch l {
	case LevelGo:
		return "GO"
	case LevelCaution:
		return "CAUTION"
	default:
		return "NO-GO"
	}
}

// ParseLevel accepts the String form of a level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "go":
		return LevelGo, nil
	case "caution":
		return LevelCaution, nil
	case "no-go":
		return LevelNoGo, nil
	}
	return LevelGo, fmt.Errorf("unknown level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MaxLevel returns the most severe of the given levels, LevelGo when none are given.
func MaxLevel(levels ...Level) Level {
	worst := LevelGo
	for _, l := range levels {
		if l > worst {
			worst = l
		}
	}
	return worst
}
