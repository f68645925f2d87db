package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/albator-sec/albator/internal/logger"
	"github.com/albator-sec/albator/internal/operation"
	albatorerrors "github.com/albator-sec/albator/pkg/errors"
)

// Registry holds the registered operation providers, keyed by domain name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	logger    *logger.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		logger:    log,
	}
}

// Register validates a provider's catalog and adds it to the registry.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return albatorerrors.NewProviderError("", fmt.Errorf("provider is nil"))
	}

	name := p.Name()
	if err := validateCatalog(name, p.Operations()); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return albatorerrors.NewProviderError(name, fmt.Errorf("provider already registered"))
	}

	r.providers[name] = p
	r.logger.WithFields(map[string]any{"provider": name}).Debug("provider registered")
	return nil
}

// Get retrieves a provider by domain name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, albatorerrors.NewProviderError(name, fmt.Errorf("no provider registered"))
	}
	return p, nil
}

// Names returns the registered domain names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindOperation locates one operation by domain and id. The rollback
// executor uses it to reach the same Restore capability the original run
// applied with.
func (r *Registry) FindOperation(domain, operationID string) (operation.Operation, error) {
	p, err := r.Get(domain)
	if err != nil {
		return operation.Operation{}, err
	}

	for _, op := range p.Operations() {
		if op.ID == operationID {
			return op, nil
		}
	}
	return operation.Operation{}, albatorerrors.NewProviderError(domain, fmt.Errorf("operation %s not found in catalog", operationID))
}

// Locate searches every registered catalog for an operation id. Ledger
// entries written without a domain field resolve through it; catalogs are
// scanned in sorted domain order so resolution is deterministic.
func (r *Registry) Locate(operationID string) (operation.Operation, error) {
	for _, name := range r.Names() {
		p, err := r.Get(name)
		if err != nil {
			continue
		}
		for _, op := range p.Operations() {
			if op.ID == operationID {
				return op, nil
			}
		}
	}
	return operation.Operation{}, albatorerrors.NewProviderError("", fmt.Errorf("operation %s not found in any catalog", operationID))
}
