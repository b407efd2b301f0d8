package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

type fakeBackend struct {
	mu         sync.Mutex
	tracks     map[string]*models.Track
	transfers  map[string]*models.OwnershipTransfer
	published  []string
	certURLs   []string
	publishErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		tracks: map[string]*models.Track{
			"t-approved": {ID: "t-approved", ArtistID: "u1", FileHash: "0xfile", Status: models.TrackStatusApproved},
			"t-pending":  {ID: "t-pending", ArtistID: "u1", Status: models.TrackStatusPending},
		},
		transfers: map[string]*models.OwnershipTransfer{
			"x-approved":  {ID: "x-approved", TrackID: "t-approved", CurrentOwnerID: "u1", NewOwnerID: "u2", Status: models.TransferStatusApproved},
			"x-requested": {ID: "x-requested", TrackID: "t-approved", Status: models.TransferStatusRequested},
		},
	}
}

func (b *fakeBackend) GetTrack(_ context.Context, id string) (*models.Track, error) {
	if t, ok := b.tracks[id]; ok {
		return t, nil
	}
	return nil, &APIError{StatusCode: 404, Message: "Track not found"}
}

func (b *fakeBackend) GetTransfer(_ context.Context, id string) (*models.OwnershipTransfer, error) {
	if t, ok := b.transfers[id]; ok {
		return t, nil
	}
	return nil, &APIError{StatusCode: 404, Message: "Transfer not found"}
}

func (b *fakeBackend) PublishCopyright(_ context.Context, trackID, hash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, "copyright:"+trackID+":"+hash)
	return nil
}

func (b *fakeBackend) PublishTransfer(_ context.Context, transferID, hash, certURL string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, "transfer:"+transferID+":"+hash)
	b.certURLs = append(b.certURLs, certURL)
	return nil
}

// scriptedChain wraps the simulated chain with failure hooks.
type scriptedChain struct {
	*SimulatedChain
	signErr error
	hold    chan struct{}
}

func (c *scriptedChain) Sign(ctx context.Context, call ContractCall) (string, error) {
	if c.signErr != nil {
		return "", c.signErr
	}
	return c.SimulatedChain.Sign(ctx, call)
}

func (c *scriptedChain) WaitReceipt(ctx context.Context, hash string) (Receipt, error) {
	if c.hold != nil {
		select {
		case <-c.hold:
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		}
	}
	return c.SimulatedChain.WaitReceipt(ctx, hash)
}

type fakeCertifier struct{}

func (fakeCertifier) IssueTransferCertificate(_ context.Context, transfer *models.OwnershipTransfer, tx models.BlockchainTransaction) (string, error) {
	return "https://certs.example/" + transfer.ID + ".json", nil
}

func newTestChain() *scriptedChain {
	return &scriptedChain{SimulatedChain: NewSimulatedChain(config.BlockchainConfig{
		Network:        "simulated",
		AccountAddress: "0x00000000000000000000000000000000000a11ce",
	}, testLogger())}
}

func newTestPublisher(t *testing.T, user *models.User, chain *scriptedChain, backend *fakeBackend, opts PublisherOptions) *Publisher {
	t.Helper()
	wallet := NewWalletConnector(chain)
	_, err := wallet.Connect(context.Background())
	require.NoError(t, err)
	opts.Logger = testLogger()
	return NewPublisher(user, wallet, chain, backend, opts)
}

func TestPublishCopyrightConfirms(t *testing.T) {
	chain := newTestChain()
	backend := newFakeBackend()
	metrics := NewMetrics()
	p := newTestPublisher(t, admin(models.AdminTypeTechnical), chain, backend, PublisherOptions{Metrics: metrics})

	status, err := p.Publish(context.Background(), models.EntityTypeCopyright, "t-approved")
	require.NoError(t, err)
	assert.Equal(t, PublishConfirmed, status.State)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.Transaction)
	assert.Equal(t, models.TransactionStatusConfirmed, status.Transaction.Status)
	require.NotNil(t, status.Transaction.GasUsed)
	assert.NotEmpty(t, status.Transaction.Fee)

	assert.Equal(t, []string{"copyright:t-approved:" + status.Transaction.Hash}, backend.published)
	record, ok := chain.VerifyRecord(status.Transaction.Hash)
	require.True(t, ok)
	assert.Equal(t, []string{"t-approved", "0xfile", "u1"}, record.Call.Args)
}

func TestPublishPreconditionsKeepInit(t *testing.T) {
	backend := newFakeBackend()

	cases := []struct {
		name string
		user *models.User
		kind models.EntityType
		id   string
		want error
	}{
		{"content admin cannot publish copyrights", admin(models.AdminTypeContent), models.EntityTypeCopyright, "t-approved", ErrPublishForbidden},
		{"artist cannot publish", &models.User{ID: "u1", Role: models.RoleArtist}, models.EntityTypeCopyright, "t-approved", ErrPublishForbidden},
		{"financial admin cannot publish transfers", admin(models.AdminTypeFinancial), models.EntityTypeTransfer, "x-approved", ErrPublishForbidden},
		{"pending track", admin(models.AdminTypeTechnical), models.EntityTypeCopyright, "t-pending", ErrTrackNotApproved},
		{"requested transfer", admin(models.AdminTypeSuper), models.EntityTypeTransfer, "x-requested", ErrTransferNotApproved},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPublisher(t, tc.user, newTestChain(), backend, PublisherOptions{})
			err := p.Start(context.Background(), tc.kind, tc.id)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, PublishInit, p.Status().State)
			assert.Equal(t, 0, p.Status().Progress)
		})
	}
}

func TestPublishRequiresConnectedWallet(t *testing.T) {
	chain := newTestChain()
	p := NewPublisher(admin(models.AdminTypeTechnical), NewWalletConnector(chain), chain, newFakeBackend(), PublisherOptions{Logger: testLogger()})

	err := p.Start(context.Background(), models.EntityTypeCopyright, "t-approved")
	assert.ErrorIs(t, err, ErrWalletNotConnected)
	assert.Equal(t, PublishInit, p.Status().State)
}

func TestPublishTransferIssuesCertificate(t *testing.T) {
	backend := newFakeBackend()
	p := newTestPublisher(t, admin(models.AdminTypeSuper), newTestChain(), backend, PublisherOptions{Certifier: fakeCertifier{}})

	status, err := p.Publish(context.Background(), models.EntityTypeTransfer, "x-approved")
	require.NoError(t, err)
	assert.Equal(t, PublishConfirmed, status.State)
	assert.Equal(t, "https://certs.example/x-approved.json", status.CertificateURL)
	assert.Equal(t, []string{"https://certs.example/x-approved.json"}, backend.certURLs)
}

func TestPublishWalletRejectionFails(t *testing.T) {
	chain := newTestChain()
	chain.signErr = ErrWalletRejected
	p := newTestPublisher(t, admin(models.AdminTypeTechnical), chain, newFakeBackend(), PublisherOptions{})

	status, err := p.Publish(context.Background(), models.EntityTypeCopyright, "t-approved")
	assert.ErrorIs(t, err, ErrWalletRejected)

	var perr *PublishError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, PublishSigning, perr.Stage)
	assert.Equal(t, PublishFailed, status.State)
	assert.Nil(t, status.Transaction)
	assert.NotEmpty(t, status.Error)

	// a new attempt starts over from init
	chain.signErr = nil
	status, err = p.Publish(context.Background(), models.EntityTypeCopyright, "t-approved")
	require.NoError(t, err)
	assert.Equal(t, PublishConfirmed, status.State)
	assert.Empty(t, status.Error)
}

func TestPublishConfirmTimeout(t *testing.T) {
	chain := newTestChain()
	chain.hold = make(chan struct{})
	defer close(chain.hold)
	p := newTestPublisher(t, admin(models.AdminTypeTechnical), chain, newFakeBackend(), PublisherOptions{ConfirmTimeout: 20 * time.Millisecond})

	status, err := p.Publish(context.Background(), models.EntityTypeCopyright, "t-approved")
	assert.ErrorIs(t, err, ErrConfirmTimeout)
	assert.Equal(t, PublishFailed, status.State)
	require.NotNil(t, status.Transaction)
	assert.Equal(t, models.TransactionStatusFailed, status.Transaction.Status)
}

func TestPublishSingleFlightAndClose(t *testing.T) {
	chain := newTestChain()
	chain.hold = make(chan struct{})
	defer close(chain.hold)
	backend := newFakeBackend()
	p := newTestPublisher(t, admin(models.AdminTypeTechnical), chain, backend, PublisherOptions{ConfirmTimeout: time.Minute})

	require.NoError(t, p.Start(context.Background(), models.EntityTypeCopyright, "t-approved"))
	assert.ErrorIs(t, p.Start(context.Background(), models.EntityTypeCopyright, "t-approved"), ErrPublishInFlight)

	assert.Eventually(t, func() bool { return p.Status().State == PublishConfirming }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 85, p.Status().Progress)
	assert.NotNil(t, p.Status().Transaction)

	p.Close()
	status := p.Status()
	assert.Equal(t, PublishInit, status.State)
	assert.Nil(t, status.Transaction)
	assert.Nil(t, status.Target)
	assert.Empty(t, backend.published)

	// closing frees the dialog for another attempt
	require.NoError(t, p.Start(context.Background(), models.EntityTypeCopyright, "t-approved"))
	p.Close()
}

func TestPublishBackendFailureKeepsConfirmed(t *testing.T) {
	backend := newFakeBackend()
	backend.publishErr = &APIError{StatusCode: 500, Message: "database unavailable"}
	p := newTestPublisher(t, admin(models.AdminTypeTechnical), newTestChain(), backend, PublisherOptions{})

	status, err := p.Publish(context.Background(), models.EntityTypeCopyright, "t-approved")
	assert.ErrorIs(t, err, ErrBackendSync)
	assert.Equal(t, PublishConfirmed, status.State)
	assert.Contains(t, status.SyncError, "database unavailable")
	assert.Equal(t, models.TransactionStatusConfirmed, status.Transaction.Status)

	// a confirmed publish survives closing the dialog
	p.Close()
	assert.Equal(t, PublishConfirmed, p.Status().State)
}

func TestPublishServiceKeepsOnePublisherPerSession(t *testing.T) {
	chain := newTestChain()
	svc := NewPublishService(chain, chain, nil, time.Minute, testLogger(), nil)
	user := admin(models.AdminTypeTechnical)

	p1 := svc.For("s1", user, newFakeBackend())
	p2 := svc.For("s1", user, newFakeBackend())
	p3 := svc.For("s2", user, newFakeBackend())
	assert.Same(t, p1, p2)
	assert.NotSame(t, p1, p3)

	svc.Drop("s1")
	assert.NotSame(t, p1, svc.For("s1", user, newFakeBackend()))
}

func TestPublishServiceForgetsIdlePublishers(t *testing.T) {
	chain := newTestChain()
	svc := NewPublishService(chain, chain, nil, time.Minute, testLogger(), nil)
	user := admin(models.AdminTypeTechnical)

	stale := svc.For("s1", user, newFakeBackend())

	later := time.Now().Add(publisherIdleTTL + 2*time.Minute)
	svc.now = func() time.Time { return later }

	fresh := svc.For("s2", user, newFakeBackend())
	svc.mu.Lock()
	_, kept := svc.publishers["s1"]
	count := len(svc.publishers)
	svc.mu.Unlock()
	assert.False(t, kept)
	assert.Equal(t, 1, count)
	assert.Same(t, fresh, svc.For("s2", user, newFakeBackend()))
	assert.NotSame(t, stale, svc.For("s1", user, newFakeBackend()))
}

func TestPublishPreconditionsIgnoreWalletForUnapprovedRecords(t *testing.T) {
	cases := []struct {
		name string
		user *models.User
		kind models.EntityType
		id   string
	}{
		{"pending track", admin(models.AdminTypeTechnical), models.EntityTypeCopyright, "t-pending"},
		{"requested transfer", admin(models.AdminTypeSuper), models.EntityTypeTransfer, "x-requested"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chain := newTestChain()
			p := NewPublisher(tc.user, NewWalletConnector(chain), chain, newFakeBackend(), PublisherOptions{Logger: testLogger()})
			require.False(t, p.Wallet().Connected())

			err := p.Start(context.Background(), tc.kind, tc.id)
			assert.Error(t, err)
			status := p.Status()
			assert.Equal(t, PublishInit, status.State)
			assert.Equal(t, 0, status.Progress)
			assert.Nil(t, status.Transaction)
		})
	}
}
