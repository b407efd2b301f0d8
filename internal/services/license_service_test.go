package services

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

func TestCanRequest(t *testing.T) {
	track := &models.Track{ID: "t1", ArtistID: "artist-1"}
	req := func(track string, status models.LicenseStatus) models.LicenseRequest {
		return models.LicenseRequest{TrackID: track, RequesterID: "u2", Status: status}
	}

	assert.False(t, CanRequest(track, "artist-1", nil))
	assert.True(t, CanRequest(track, "u2", nil))
	assert.False(t, CanRequest(track, "u2", []models.LicenseRequest{req("t1", models.LicenseStatusApproved)}))
	assert.True(t, CanRequest(track, "u2", []models.LicenseRequest{req("t1", models.LicenseStatusRejected)}))
	assert.True(t, CanRequest(track, "u2", []models.LicenseRequest{req("t9", models.LicenseStatusPending)}))
	assert.False(t, CanRequest(track, "u2", []models.LicenseRequest{
		req("t1", models.LicenseStatusRejected),
		req("t1", models.LicenseStatusPublished),
	}))

	// another requester's live request does not block this one
	other := models.LicenseRequest{TrackID: "t1", RequesterID: "u3", Status: models.LicenseStatusPaid}
	assert.True(t, CanRequest(track, "u2", []models.LicenseRequest{other}))
	assert.False(t, CanRequest(nil, "u2", nil))
}

type fakeLicenseAPI struct {
	track    *models.Track
	existing []models.LicenseRequest
	created  []models.LicenseRequest
}

func (f *fakeLicenseAPI) GetTrack(context.Context, string) (*models.Track, error) {
	if f.track == nil {
		return nil, &APIError{StatusCode: 404, Message: "Track not found"}
	}
	return f.track, nil
}

func (f *fakeLicenseAPI) ListLicenseRequests(context.Context, string, string) ([]models.LicenseRequest, error) {
	return f.existing, nil
}

func (f *fakeLicenseAPI) CreateLicenseRequest(_ context.Context, req models.LicenseRequest) (*models.LicenseRequest, error) {
	req.ID = "l-new"
	f.created = append(f.created, req)
	return &req, nil
}

func validLicenseForm() *SubmitLicenseRequest {
	return &SubmitLicenseRequest{Purpose: "Film score", Usage: "Background music", Duration: "1 year", Territory: "Worldwide"}
}

func TestSubmitLicenseRequest(t *testing.T) {
	svc := NewLicenseService(nil, testLogger())
	licensee := &models.User{ID: "u2", Role: models.RoleLicensee}
	api := &fakeLicenseAPI{track: &models.Track{ID: "t1", ArtistID: "artist-1", Status: models.TrackStatusPublished}}

	created, err := svc.SubmitRequest(context.Background(), api, licensee, "t1", validLicenseForm())
	require.NoError(t, err)
	assert.Equal(t, "l-new", created.ID)
	require.Len(t, api.created, 1)
	assert.Equal(t, models.LicenseStatusPending, api.created[0].Status)

	api.existing = []models.LicenseRequest{api.created[0]}
	_, err = svc.SubmitRequest(context.Background(), api, licensee, "t1", validLicenseForm())
	assert.ErrorIs(t, err, ErrLicenseActive)
}

func TestSubmitLicenseRequestRejections(t *testing.T) {
	svc := NewLicenseService(nil, testLogger())
	api := &fakeLicenseAPI{track: &models.Track{ID: "t1", ArtistID: "artist-1"}}

	_, err := svc.SubmitRequest(context.Background(), api, &models.User{ID: "artist-1", Role: models.RoleArtist}, "t1", validLicenseForm())
	assert.ErrorIs(t, err, ErrSelfLicense)

	_, err = svc.SubmitRequest(context.Background(), api, admin(models.AdminTypeSuper), "t1", validLicenseForm())
	assert.ErrorIs(t, err, ErrLicenseNotPermitted)

	form := validLicenseForm()
	form.Territory = "   "
	_, err = svc.SubmitRequest(context.Background(), api, &models.User{ID: "u2", Role: models.RoleLicensee}, "t1", form)
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
	assert.Empty(t, api.created)

	api.track = nil
	_, err = svc.Eligibility(context.Background(), api, &models.User{ID: "u2", Role: models.RoleLicensee}, "t1")
	assert.True(t, IsNotFound(err))
}
