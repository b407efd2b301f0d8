// internal/services/publisher.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

var (
	ErrPublishInFlight     = errors.New("a publish is already in progress")
	ErrPublishForbidden    = errors.New("not allowed to publish this record")
	ErrTrackNotApproved    = errors.New("track must be approved before publishing")
	ErrTransferNotApproved = errors.New("transfer must be approved before publishing")
	ErrConfirmTimeout      = errors.New("timed out waiting for transaction receipt")
	ErrBackendSync         = errors.New("transaction confirmed but backend update failed")
)

// PublishBackend is the platform API as seen by the publisher.
type PublishBackend interface {
	GetTrack(ctx context.Context, id string) (*models.Track, error)
	GetTransfer(ctx context.Context, id string) (*models.OwnershipTransfer, error)
	PublishCopyright(ctx context.Context, trackID, txHash string) error
	PublishTransfer(ctx context.Context, transferID, txHash, certificateURL string) error
}

// Certifier issues the ownership certificate of a confirmed transfer.
type Certifier interface {
	IssueTransferCertificate(ctx context.Context, transfer *models.OwnershipTransfer, tx models.BlockchainTransaction) (string, error)
}

type PublishTarget struct {
	Kind     models.EntityType `json:"kind"`
	EntityID string            `json:"entityId"`
}

type PublishStatus struct {
	State          PublishState                  `json:"state"`
	Progress       int                           `json:"progress"`
	Target         *PublishTarget                `json:"target,omitempty"`
	Transaction    *models.BlockchainTransaction `json:"transaction,omitempty"`
	Error          string                        `json:"error,omitempty"`
	SyncError      string                        `json:"syncError,omitempty"`
	CertificateURL string                        `json:"certificateUrl,omitempty"`
}

type PublisherOptions struct {
	ConfirmTimeout time.Duration
	Certifier      Certifier
	Logger         logrus.FieldLogger
	Metrics        *Metrics
}

// Publisher runs one publish dialog. It applies the effects produced by
// Transition and owns the in-progress transaction record.
type Publisher struct {
	user     *models.User
	wallet   *WalletConnector
	contract ContractCaller
	backend  PublishBackend
	opts     PublisherOptions
	now      func() time.Time

	mu       sync.Mutex
	state    PublishState
	progress int
	target   *PublishTarget
	tx       *models.BlockchainTransaction
	lastErr  error
	syncErr  error
	certURL  string
	attempt  uint64
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewPublisher(user *models.User, wallet *WalletConnector, contract ContractCaller, backend PublishBackend, opts PublisherOptions) *Publisher {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 2 * time.Minute
	}
	return &Publisher{
		user:     user.Clone(),
		wallet:   wallet,
		contract: contract,
		backend:  backend,
		opts:     opts,
		now:      time.Now,
		state:    PublishInit,
	}
}

func (p *Publisher) Wallet() *WalletConnector { return p.wallet }

// Running reports whether an attempt is in flight.
func (p *Publisher) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start checks the preconditions and launches the attempt in the
// background. A violated precondition leaves the publisher in init.
func (p *Publisher) Start(ctx context.Context, kind models.EntityType, entityID string) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrPublishInFlight
	}
	if p.state.Terminal() {
		p.resetLocked()
	}
	backend := p.backend
	p.mu.Unlock()

	entity, err := p.checkPreconditions(ctx, backend, kind, entityID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrPublishInFlight
	}
	if p.contract == nil {
		return ErrWalletUnavailable
	}

	p.resetLocked()
	p.attempt++
	attempt := p.attempt
	p.target = &PublishTarget{Kind: entity.kind, EntityID: entityID}
	if _, err := p.applyLocked(attempt, PublishEvent{Kind: EventStart}); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = true
	p.done = make(chan struct{})
	go p.run(runCtx, attempt, backend, entity, p.done)
	return nil
}

// Publish starts an attempt and waits for it to reach a terminal state.
func (p *Publisher) Publish(ctx context.Context, kind models.EntityType, entityID string) (PublishStatus, error) {
	if err := p.Start(ctx, kind, entityID); err != nil {
		return p.Status(), err
	}
	status := p.Wait(ctx)
	switch {
	case status.State == PublishFailed:
		p.mu.Lock()
		err := p.lastErr
		p.mu.Unlock()
		return status, err
	case status.SyncError != "":
		return status, ErrBackendSync
	}
	return status, ctx.Err()
}

// Wait blocks until the running attempt finishes or ctx is done.
func (p *Publisher) Wait(ctx context.Context) PublishStatus {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return p.Status()
}

func (p *Publisher) Status() PublishStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	status := PublishStatus{State: p.state, Progress: p.progress, CertificateURL: p.certURL}
	if p.target != nil {
		target := *p.target
		status.Target = &target
	}
	if p.tx != nil {
		tx := *p.tx
		status.Transaction = &tx
	}
	if p.lastErr != nil {
		status.Error = p.lastErr.Error()
	}
	if p.syncErr != nil {
		status.SyncError = p.syncErr.Error()
	}
	return status
}

// Close discards the in-progress transaction and returns to init. A
// confirmed publish is left as is; nothing already broadcast is cancelled.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PublishConfirmed {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.attempt++
	p.running = false
	p.cancel = nil
	p.done = nil
	p.resetLocked()
}

func (p *Publisher) resetLocked() {
	p.state = PublishInit
	p.progress = 0
	p.target = nil
	p.tx = nil
	p.lastErr = nil
	p.syncErr = nil
	p.certURL = ""
}

type publishEntity struct {
	kind     models.EntityType
	track    *models.Track
	transfer *models.OwnershipTransfer
}

func (p *Publisher) checkPreconditions(ctx context.Context, backend PublishBackend, kind models.EntityType, entityID string) (publishEntity, error) {
	switch kind {
	case models.EntityTypeCopyright, models.EntityTypeTrack:
		if !HasPermission(p.user, PermPublishCopyrights) {
			return publishEntity{}, ErrPublishForbidden
		}
	case models.EntityTypeTransfer:
		if !CanPublishTransfer(p.user) {
			return publishEntity{}, ErrPublishForbidden
		}
	default:
		return publishEntity{}, fmt.Errorf("cannot publish %q records", kind)
	}

	if p.wallet == nil || !p.wallet.Connected() {
		return publishEntity{}, ErrWalletNotConnected
	}

	if kind == models.EntityTypeTransfer {
		transfer, err := backend.GetTransfer(ctx, entityID)
		if err != nil {
			return publishEntity{}, fmt.Errorf("failed to load transfer: %w", err)
		}
		if transfer.Status != models.TransferStatusApproved {
			return publishEntity{}, ErrTransferNotApproved
		}
		return publishEntity{kind: models.EntityTypeTransfer, transfer: transfer}, nil
	}

	track, err := backend.GetTrack(ctx, entityID)
	if err != nil {
		return publishEntity{}, fmt.Errorf("failed to load track: %w", err)
	}
	if track.Status != models.TrackStatusApproved {
		return publishEntity{}, ErrTrackNotApproved
	}
	return publishEntity{kind: models.EntityTypeCopyright, track: track}, nil
}

// CanPublishTransfer holds for technical and super admins.
func CanPublishTransfer(user *models.User) bool {
	return HasRole(user, string(models.AdminTypeTechnical)) || HasRole(user, string(models.AdminTypeSuper))
}

func (p *Publisher) run(ctx context.Context, attempt uint64, backend PublishBackend, entity publishEntity, done chan struct{}) {
	defer close(done)
	defer p.finish(attempt)

	contract, err := p.contract.Resolve(ctx)
	if err == nil && p.wallet.Account() == "" {
		err = ErrWalletNotConnected
	}
	if !p.step(attempt, PublishEvent{Kind: EventResolved}, err) {
		return
	}

	call := buildContractCall(entity, contract, p.wallet.Account())
	if !p.step(attempt, PublishEvent{Kind: EventAssembled}, nil) {
		return
	}

	hash, err := p.contract.Sign(ctx, call)
	if !p.step(attempt, PublishEvent{Kind: EventApproved, Hash: hash}, err) {
		return
	}

	err = p.contract.Broadcast(ctx, hash)
	if !p.step(attempt, PublishEvent{Kind: EventBroadcast}, err) {
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.opts.ConfirmTimeout)
	receipt, err := p.contract.WaitReceipt(waitCtx, hash)
	cancel()
	if errors.Is(err, context.DeadlineExceeded) {
		err = ErrConfirmTimeout
	}
	if !p.step(attempt, PublishEvent{Kind: EventReceipt, GasUsed: receipt.GasUsed, Fee: receipt.Fee}, err) {
		return
	}

	p.notifyBackend(ctx, attempt, backend, entity)
}

// step feeds the outcome of one stage into the machine. A stage error turns
// into a fail event. It reports whether the attempt should continue.
func (p *Publisher) step(attempt uint64, event PublishEvent, stageErr error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if attempt != p.attempt {
		return false
	}
	if stageErr != nil {
		event = PublishEvent{Kind: EventFail, Err: &PublishError{Stage: p.state, Err: stageErr}}
	}
	if _, err := p.applyLocked(attempt, event); err != nil {
		p.opts.Logger.WithError(err).Error("Publish machine rejected event")
		p.applyLocked(attempt, PublishEvent{Kind: EventFail, Err: &PublishError{Stage: p.state, Err: err}})
		return false
	}
	return !p.state.Terminal() || p.state == PublishConfirmed
}

func (p *Publisher) applyLocked(attempt uint64, event PublishEvent) ([]Effect, error) {
	next, effects, err := Transition(p.state, event)
	if err != nil {
		return nil, err
	}
	p.state = next
	for _, e := range effects {
		switch e.Kind {
		case EffectSetProgress:
			p.progress = e.Progress
		case EffectCreateTransaction:
			p.tx = &models.BlockchainTransaction{
				Hash:        e.Hash,
				Status:      models.TransactionStatusPending,
				SubmittedAt: p.now(),
			}
		case EffectConfirmTransaction:
			if p.tx != nil && !p.tx.Terminal() {
				gas := e.GasUsed
				p.tx.Status = models.TransactionStatusConfirmed
				p.tx.GasUsed = &gas
				p.tx.Fee = e.Fee
			}
		case EffectFailTransaction:
			if p.tx != nil && !p.tx.Terminal() {
				p.tx.Status = models.TransactionStatusFailed
			}
			p.lastErr = e.Err
		}
	}
	return effects, nil
}

func (p *Publisher) notifyBackend(ctx context.Context, attempt uint64, backend PublishBackend, entity publishEntity) {
	p.mu.Lock()
	if attempt != p.attempt || p.tx == nil {
		p.mu.Unlock()
		return
	}
	tx := *p.tx
	p.mu.Unlock()

	var certURL string
	var err error
	switch entity.kind {
	case models.EntityTypeTransfer:
		if p.opts.Certifier != nil {
			certURL, err = p.opts.Certifier.IssueTransferCertificate(ctx, entity.transfer, tx)
			if err != nil {
				p.opts.Logger.WithError(err).WithField("transfer_id", entity.transfer.ID).Warn("Failed to issue transfer certificate")
				certURL, err = "", nil
			}
		}
		err = backend.PublishTransfer(ctx, entity.transfer.ID, tx.Hash, certURL)
	default:
		err = backend.PublishCopyright(ctx, entity.track.ID, tx.Hash)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if attempt != p.attempt {
		return
	}
	p.certURL = certURL
	if err != nil {
		p.syncErr = err
		p.opts.Logger.WithError(err).WithField("hash", tx.Hash).Error("Confirmed transaction could not be recorded by the backend")
	}
}

func (p *Publisher) finish(attempt uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if attempt != p.attempt {
		return
	}
	p.running = false
	p.cancel = nil
	if p.state.Terminal() && p.target != nil {
		p.opts.Metrics.ObservePublish(string(p.target.Kind), string(p.state))
	}
	if p.state == PublishFailed && p.target != nil {
		p.opts.Logger.WithError(p.lastErr).WithField("entity_id", p.target.EntityID).Warn("Publish attempt failed")
	}
}

func buildContractCall(entity publishEntity, contract, from string) ContractCall {
	if entity.kind == models.EntityTypeTransfer {
		t := entity.transfer
		return ContractCall{
			Contract: contract,
			From:     from,
			Method:   "transferOwnership",
			Args:     []string{t.TrackID, t.CurrentOwnerID, t.NewOwnerID},
		}
	}
	t := entity.track
	return ContractCall{
		Contract: contract,
		From:     from,
		Method:   "registerCopyright",
		Args:     []string{t.ID, t.FileHash, t.ArtistID},
	}
}

const publisherIdleTTL = 30 * time.Minute

type sessionPublisher struct {
	publisher *Publisher
	lastUsed  time.Time
}

// PublishService keeps one wallet connector and publisher per session.
// Publishers idle for longer than publisherIdleTTL with no attempt running
// are closed and forgotten.
type PublishService struct {
	provider  WalletProvider
	contract  ContractCaller
	certifier Certifier
	timeout   time.Duration
	logger    logrus.FieldLogger
	metrics   *Metrics
	now       func() time.Time

	mu         sync.Mutex
	publishers map[string]*sessionPublisher
	lastSweep  time.Time
}

func NewPublishService(provider WalletProvider, contract ContractCaller, certifier Certifier, confirmTimeout time.Duration, logger logrus.FieldLogger, metrics *Metrics) *PublishService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PublishService{
		provider:   provider,
		contract:   contract,
		certifier:  certifier,
		timeout:    confirmTimeout,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
		publishers: make(map[string]*sessionPublisher),
		lastSweep:  time.Now(),
	}
}

// For returns the publisher of a session, creating it on first use. The
// backend is rebound on every call so the current credential is used.
func (s *PublishService) For(sessionID string, user *models.User, backend PublishBackend) *Publisher {
	now := s.now()
	s.mu.Lock()
	idle := s.sweepLocked(now)
	defer func() {
		s.mu.Unlock()
		for _, p := range idle {
			p.Close()
		}
	}()

	if entry, ok := s.publishers[sessionID]; ok && entry.publisher.user.ID == user.ID {
		entry.lastUsed = now
		p := entry.publisher
		p.mu.Lock()
		p.backend = backend
		p.mu.Unlock()
		return p
	}

	p := NewPublisher(user, NewWalletConnector(s.provider), s.contract, backend, PublisherOptions{
		ConfirmTimeout: s.timeout,
		Certifier:      s.certifier,
		Logger:         s.logger.WithField("session_id", sessionID),
		Metrics:        s.metrics,
	})
	s.publishers[sessionID] = &sessionPublisher{publisher: p, lastUsed: now}
	return p
}

func (s *PublishService) sweepLocked(now time.Time) []*Publisher {
	if now.Sub(s.lastSweep) < time.Minute {
		return nil
	}
	s.lastSweep = now

	var idle []*Publisher
	for id, entry := range s.publishers {
		if now.Sub(entry.lastUsed) <= publisherIdleTTL || entry.publisher.Running() {
			continue
		}
		delete(s.publishers, id)
		idle = append(idle, entry.publisher)
	}
	return idle
}

// Drop closes and forgets the publisher of a session.
func (s *PublishService) Drop(sessionID string) {
	s.mu.Lock()
	entry, ok := s.publishers[sessionID]
	delete(s.publishers, sessionID)
	s.mu.Unlock()
	if ok {
		entry.publisher.Close()
	}
}

