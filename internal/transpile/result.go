package transpile

// BindArgument is the value for one numbered placeholder.
type BindArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ValidationResult is the outcome of one ValidateAndTranspile call.
// Exactly one of SQL/Args or Error is set.
type ValidationResult struct {
	Valid    bool           `json:"valid"`
	SQL      *string        `json:"sql"`
	Args     []BindArgument `json:"args"`
	Error    *string        `json:"error"`
	Warnings []string       `json:"warnings"`
}

// NewValidationResult converts the outcome of Transpile into its serialized
// form. A non-nil err always wins.
func NewValidationResult(out *Output, err error) ValidationResult {
	if err != nil {
		return failureResult(err)
	}
	return successResult(out)
}

func successResult(out *Output) ValidationResult {
	sql := out.SQL
	args := out.Args
	if args == nil {
		args = []BindArgument{}
	}
	warnings := out.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return ValidationResult{Valid: true, SQL: &sql, Args: args, Warnings: warnings}
}

func failureResult(err error) ValidationResult {
	msg := err.Error()
	return ValidationResult{Error: &msg, Warnings: []string{}}
}
