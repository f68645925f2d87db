package provider

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/albator-sec/albator/internal/operation"
	albatorerrors "github.com/albator-sec/albator/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	operationIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)
)

// catalogEntry mirrors the validated surface of an Operation. Handlers are
// checked separately since interfaces carry no tags.
type catalogEntry struct {
	ID          string `validate:"required,operation_id"`
	Description string `validate:"required,min=1,max=200"`
	Domain      string `validate:"required,operation_id"`
	Target      string `validate:"required"`
}

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("operation_id", func(fl validator.FieldLevel) bool {
			return operationIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})
	return validateInst
}

// validateCatalog rejects catalogs with malformed descriptors, duplicate
// ids, mismatched domains, or missing handlers before they reach the engine.
func validateCatalog(name string, ops []operation.Operation) error {
	if len(ops) == 0 {
		return albatorerrors.NewProviderError(name, fmt.Errorf("catalog is empty"))
	}

	v := validatorInstance()
	seen := make(map[string]struct{}, len(ops))

	for _, op := range ops {
		entry := catalogEntry{ID: op.ID, Description: op.Description, Domain: op.Domain, Target: op.Target}
		if err := v.Struct(entry); err != nil {
			return albatorerrors.NewProviderError(name, fmt.Errorf("invalid operation %q: %w", op.ID, err))
		}
		if op.Domain != name {
			return albatorerrors.NewProviderError(name, fmt.Errorf("operation %q declares foreign domain %q", op.ID, op.Domain))
		}
		if op.Handler == nil {
			return albatorerrors.NewProviderError(name, fmt.Errorf("operation %q has no handler", op.ID))
		}
		if _, dup := seen[op.ID]; dup {
			return albatorerrors.NewProviderError(name, fmt.Errorf("duplicate operation id %q", op.ID))
		}
		seen[op.ID] = struct{}{}
	}

	return nil
}
