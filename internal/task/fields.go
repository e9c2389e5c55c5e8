package task

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	reInterval = regexp.MustCompile(`^(\d+:){0,2}\d+$`)
	reChannel  = regexp.MustCompile(`^[a-zA-Z0-9_]{4,25}$`)
	reTaskName = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,40}$`)
)

const (
	MsgInterval      = "Interval must be s, m:s or h:m:s (for example 2:5:30)."
	MsgIntervalRange = "Interval is out of range."
	MsgChannel       = "Channel must be 4-25 letters, digits or underscores."
	MsgName          = "Task name must be 3-40 letters, digits, hyphens or underscores."
	MsgMessage       = "Task message must not be empty."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	for tag, re := range map[string]*regexp.Regexp{
		"interval": reInterval,
		"channel":  reChannel,
		"taskname": reTaskName,
	} {
		re := re
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}
	return v
}

// Fields is a partial set of raw field values to check.
// Nil fields are skipped, which lets a modify command validate only what it changes.
type Fields struct {
	Interval *string
	Channel  *string
	Name     *string
}

type fieldRule struct {
	field string
	value *string
	tag   string
	msg   string
}

// Validate checks the present fields in the order interval, channel, name
// and returns a *ValidationError for the first one that fails.
func Validate(f Fields) error {
	rules := []fieldRule{
		{field: "interval", value: f.Interval, tag: "required,interval", msg: MsgInterval},
		{field: "channel", value: f.Channel, tag: "required,channel", msg: MsgChannel},
		{field: "name", value: f.Name, tag: "required,taskname", msg: MsgName},
	}
	for _, r := range rules {
		if r.value == nil {
			continue
		}
		if err := validate.Var(*r.value, r.tag); err != nil {
			return &ValidationError{Field: r.field, Message: r.msg}
		}
	}
	return nil
}

// CheckFields is Validate reduced to its message; "" means every present field passed.
func CheckFields(f Fields) string {
	if err := Validate(f); err != nil {
		return err.Error()
	}
	return ""
}

func ValidName(s string) bool    { return reTaskName.MatchString(s) }
func ValidChannel(s string) bool { return reChannel.MatchString(s) }
