package patient

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulselog/internal/audit"
	"pulselog/internal/model"
	"pulselog/internal/storage"
	"pulselog/pkg/pagination"
)

func newService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), "database.json"))
	return NewService(store, audit.NewService(store)), store
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCreateAndFindOne(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(model.Patient{ID: "p1", Name: "Ada", Age: 36, Gender: model.GenderFemale})
	require.NoError(t, err)
	assert.Equal(t, "p1", created.ID)

	found, err := svc.FindOne("p1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.Name)
}

func TestCreateDuplicate(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(model.Patient{ID: "p1", Name: "Ada", Age: 36, Gender: model.GenderFemale})
	require.NoError(t, err)

	_, err = svc.Create(model.Patient{ID: "p1", Name: "Grace", Age: 45, Gender: model.GenderFemale})
	assert.ErrorIs(t, err, storage.ErrDuplicateID)
}

func TestFindOneMissingStillAudited(t *testing.T) {
	svc, store := newService(t)

	_, err := svc.FindOne("ghost")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// The lookup failed but the access was still counted.
	entry, ok := store.AuditLogs.Get("ghost")
	require.True(t, ok)
	assert.Equal(t, int64(1), entry.PatientAccessCount)
}

func TestListAuditsEveryPatientOnPage(t *testing.T) {
	svc, store := newService(t)
	for _, id := range []string{"p1", "p2", "p3"} {
		_, err := svc.Create(model.Patient{ID: id, Name: id, Age: 30, Gender: model.GenderOther})
		require.NoError(t, err)
	}

	page, err := svc.List(pagination.Params{Page: 0, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	for _, id := range []string{"p1", "p2"} {
		entry, ok := store.AuditLogs.Get(id)
		require.True(t, ok, "patient %s on the page must be audited", id)
		assert.Equal(t, int64(1), entry.PatientAccessCount)
	}
	_, ok := store.AuditLogs.Get("p3")
	assert.False(t, ok, "patient off the page must not be audited")
}

func TestUpdateMergesFields(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Create(model.Patient{ID: "p1", Name: "Ada", Age: 36, Gender: model.GenderFemale})
	require.NoError(t, err)

	updated, err := svc.Update("p1", UpdateRequest{Age: intPtr(37)})
	require.NoError(t, err)
	assert.Equal(t, 37, updated.Age)
	assert.Equal(t, "Ada", updated.Name, "unset fields stay unchanged")
	assert.Equal(t, model.GenderFemale, updated.Gender)
}

func TestUpdateRejectsID(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Create(model.Patient{ID: "p1", Name: "Ada", Age: 36, Gender: model.GenderFemale})
	require.NoError(t, err)

	_, err = svc.Update("p1", UpdateRequest{ID: strPtr("p2"), Name: strPtr("Grace")})
	require.ErrorIs(t, err, storage.ErrInvalidUpdate)

	found, err := svc.FindOne("p1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.Name, "rejected update must change nothing")
}

func TestUpdateMissing(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Update("ghost", UpdateRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Create(model.Patient{ID: "p1", Name: "Ada", Age: 36, Gender: model.GenderFemale})
	require.NoError(t, err)

	require.NoError(t, svc.Delete("p1"))
	_, err = svc.FindOne("p1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteMissing(t *testing.T) {
	svc, _ := newService(t)
	assert.ErrorIs(t, svc.Delete("ghost"), storage.ErrNotFound)
}

func TestDeleteRejectedWhileReferenced(t *testing.T) {
	svc, store := newService(t)
	_, err := svc.Create(model.Patient{ID: "p1", Name: "Ada", Age: 36, Gender: model.GenderFemale})
	require.NoError(t, err)
	require.NoError(t, store.Samples.Add(model.Sample{ID: "s1", PatientID: "p1", HeartRate: 70}))

	err = svc.Delete("p1")
	require.ErrorIs(t, err, ErrHasSamples)

	_, found := store.Patients.Get("p1")
	assert.True(t, found, "rejected delete must leave the patient in place")

	// Once the sample is gone the delete goes through.
	store.Samples.Delete("s1")
	assert.NoError(t, svc.Delete("p1"))
}
