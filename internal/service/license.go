package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"minihost-license/internal/metrics"
	"minihost-license/internal/model"
	"minihost-license/internal/store"
)

// Validation messages. Callers branch on Result.Valid; the text is shown
// to operators.
const (
	MsgNotFound      = "license not found"
	MsgRevoked       = "license revoked"
	MsgLimitExceeded = "activation limit exceeded"
	MsgActive        = "license active"
	MsgNoMachineID   = "machine id is required"
)

const mirrorTimeout = 30 * time.Second

// Result is the outcome of a validate call.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Repository is the persistence the license service needs.
type Repository interface {
	store.Ledger
	ListActivations(ctx context.Context, key string) ([]model.Activation, error)
	ListLicenses(ctx context.Context) ([]model.LicenseSummary, error)
	Statistics(ctx context.Context, from, to time.Time) (model.LicenseStatistics, error)
}

// Mirror receives a copy of every license row after an admin change.
type Mirror interface {
	SyncLicense(ctx context.Context, license model.License) error
}

type Dependencies struct {
	Store   Repository
	Auth    *AdminAuth
	Mirror  Mirror
	Metrics *metrics.Metrics
}

// LicenseService issues, revokes and validates licenses.
type LicenseService struct {
	store   Repository
	auth    *AdminAuth
	mirror  Mirror
	metrics *metrics.Metrics

	// mirrorMu orders mirror writes; each write reloads the row under it.
	mirrorMu sync.Mutex
	mirrorWG sync.WaitGroup
}

func NewLicenseService(deps Dependencies) *LicenseService {
	return &LicenseService{
		store:   deps.Store,
		auth:    deps.Auth,
		mirror:  deps.Mirror,
		metrics: deps.Metrics,
	}
}

// Authenticate checks the admin secret without doing anything else.
func (s *LicenseService) Authenticate(adminToken string) error {
	return s.auth.Check(adminToken)
}

// Issue creates key, or re-issues it with a new ceiling and active status.
func (s *LicenseService) Issue(ctx context.Context, adminToken, key string, maxActivations int) error {
	err := s.issue(ctx, adminToken, key, maxActivations)
	s.metrics.ObserveAdminOp("issue", resultLabel(err))
	return err
}

// Generate issues a freshly generated key and returns it.
func (s *LicenseService) Generate(ctx context.Context, adminToken string, maxActivations int) (string, error) {
	key := GenerateKey()
	err := s.issue(ctx, adminToken, key, maxActivations)
	s.metrics.ObserveAdminOp("generate", resultLabel(err))
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *LicenseService) issue(ctx context.Context, adminToken, key string, maxActivations int) error {
	if err := s.auth.Check(adminToken); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" || maxActivations <= 0 {
		return ErrInvalidInput
	}

	err := s.store.Atomic(ctx, key, func(st store.Store) error {
		return st.UpsertLicense(ctx, key, maxActivations)
	})
	if err != nil {
		return err
	}
	log.Info().Str("license_key", key).Int("max_activations", maxActivations).Msg("license issued")
	s.mirrorLicense(key)
	return nil
}

// Revoke marks key revoked. Revoking an unknown or already revoked key
// succeeds.
func (s *LicenseService) Revoke(ctx context.Context, adminToken, key string) error {
	err := s.revoke(ctx, adminToken, key)
	s.metrics.ObserveAdminOp("revoke", resultLabel(err))
	return err
}

func (s *LicenseService) revoke(ctx context.Context, adminToken, key string) error {
	if err := s.auth.Check(adminToken); err != nil {
		return err
	}
	key = strings.TrimSpace(key)

	err := s.store.Atomic(ctx, key, func(st store.Store) error {
		return st.RevokeLicense(ctx, key)
	})
	if err != nil {
		return err
	}
	log.Info().Str("license_key", key).Msg("license revoked")
	s.mirrorLicense(key)
	return nil
}

// Validate evaluates key for machineID: unknown, revoked, over the
// ceiling, or active. An active license records machineID before the
// count is compared, so a machine that pushed the count over the ceiling
// stays recorded. The record and the count run in one atomic unit.
func (s *LicenseService) Validate(ctx context.Context, key, machineID string) (Result, error) {
	key = strings.TrimSpace(key)
	machineID = strings.TrimSpace(machineID)
	if machineID == "" {
		res := Result{Valid: false, Message: MsgNoMachineID}
		s.metrics.ObserveValidation(res.Valid, res.Message)
		return res, nil
	}

	var res Result
	err := s.store.Atomic(ctx, key, func(st store.Store) error {
		license, err := st.GetLicense(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			res = Result{Valid: false, Message: MsgNotFound}
			return nil
		}
		if err != nil {
			return err
		}
		if !license.IsActive() {
			res = Result{Valid: false, Message: MsgRevoked}
			return nil
		}

		if _, err := st.RecordActivationIfNew(ctx, key, machineID); err != nil {
			return err
		}
		count, err := st.CountActivations(ctx, key)
		if err != nil {
			return err
		}
		if count > int64(license.MaxActivations) {
			res = Result{Valid: false, Message: MsgLimitExceeded}
			return nil
		}
		res = Result{Valid: true, Message: MsgActive}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.metrics.ObserveValidation(res.Valid, res.Message)
	return res, nil
}

// LicenseDetail is a license with its recorded activations.
type LicenseDetail struct {
	License     model.License      `json:"license"`
	Activations []model.Activation `json:"activations"`
}

// GetLicense returns key and its activations, or store.ErrNotFound.
func (s *LicenseService) GetLicense(ctx context.Context, key string) (LicenseDetail, error) {
	key = strings.TrimSpace(key)
	license, err := s.store.GetLicense(ctx, key)
	if err != nil {
		return LicenseDetail{}, err
	}
	activations, err := s.store.ListActivations(ctx, key)
	if err != nil {
		return LicenseDetail{}, err
	}
	return LicenseDetail{License: license, Activations: activations}, nil
}

func (s *LicenseService) ListLicenses(ctx context.Context) ([]model.LicenseSummary, error) {
	return s.store.ListLicenses(ctx)
}

func (s *LicenseService) Statistics(ctx context.Context, from, to time.Time) (model.LicenseStatistics, error) {
	return s.store.Statistics(ctx, from, to)
}

// mirrorLicense pushes the current row to the mirror in the background.
// Writes are serialized and each one reads the row at write time, so the
// last write always carries the latest committed state. Mirror failures
// are logged and never fail the admin call.
func (s *LicenseService) mirrorLicense(key string) {
	if s.mirror == nil {
		return
	}
	s.mirrorWG.Add(1)
	go func() {
		defer s.mirrorWG.Done()
		s.mirrorMu.Lock()
		defer s.mirrorMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()

		license, err := s.store.GetLicense(ctx, key)
		if err != nil {
			// revoking an unknown key leaves nothing to mirror
			if !errors.Is(err, store.ErrNotFound) {
				log.Warn().Err(err).Str("license_key", key).Msg("mirror: load license")
			}
			return
		}
		if err := s.mirror.SyncLicense(ctx, license); err != nil {
			s.metrics.ObserveMirrorFailure()
			log.Warn().Err(err).Str("license_key", key).Msg("mirror: sync license")
		}
	}()
}

// WaitMirror blocks until pending mirror writes are done.
func (s *LicenseService) WaitMirror() {
	s.mirrorWG.Wait()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
