package registration

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"regform/internal/models"
	"regform/internal/store"
)

var submissionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "regform",
	Subsystem: "registration",
	Name:      "submissions_total",
	Help:      "The total number of registration submissions by outcome",
}, []string{"result", "kind"})

// Service validates submissions and appends accepted ones to a store.
type Service struct {
	// mu serializes lookup, validate and append so two submissions can't both
	// pass the uniqueness and capacity checks before either is written.
	mu sync.Mutex

	store     store.Store
	validator *Validator
	logger    *log.Logger
}

func NewService(s store.Store, v *Validator, logger *log.Logger) *Service {
	if v == nil {
		v = NewValidator(DefaultMaxTeamMembers)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: s, validator: v, logger: logger.WithPrefix("registration")}
}

// Register records sub if it passes validation. The returned error is always
// an *Error; nothing is persisted when it is non-nil.
func (s *Service) Register(ctx context.Context, sub models.Submission) (models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lookup, err := s.store.LookupSets(ctx)
	if err != nil {
		return s.fail(storageError(KindStorageUnavailable, err))
	}

	reg, err := s.validator.Validate(sub, lookup, func(team string) (int, error) {
		return s.store.TeamMemberCount(ctx, team)
	})
	if err != nil {
		// other error types from Validate count as a read failure
		var rerr *Error
		if !errors.As(err, &rerr) {
			rerr = storageError(KindStorageUnavailable, err)
		}
		return s.fail(rerr)
	}

	if err := s.store.Append(ctx, reg); err != nil {
		kind := KindPersistFailure
		if errors.Is(err, store.ErrStorageUnavailable) {
			kind = KindStorageUnavailable
		}
		return s.fail(storageError(kind, err))
	}

	submissionCounter.WithLabelValues("accepted", "").Inc()
	s.logger.Info("registration accepted", "action", reg.Action, "team", reg.TeamName)
	return reg, nil
}

// Ready reports whether the store can be read.
func (s *Service) Ready(ctx context.Context) error {
	_, err := s.store.Count(ctx)
	return err
}

func (s *Service) fail(err *Error) (models.Registration, error) {
	if err.Kind.UserError() {
		submissionCounter.WithLabelValues("rejected", string(err.Kind)).Inc()
		s.logger.Debug("registration rejected", "kind", err.Kind)
	} else {
		submissionCounter.WithLabelValues("error", string(err.Kind)).Inc()
		s.logger.Error("registration not stored", "kind", err.Kind, "err", err.Err)
	}
	return models.Registration{}, err
}
