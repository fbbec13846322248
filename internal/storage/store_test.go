package storage

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulselog/internal/model"
)

func patientFixture(id string) model.Patient {
	return model.Patient{ID: id, Name: "Patient " + id, Age: 40, Gender: model.GenderOther}
}

func TestCollectionAddAndGet(t *testing.T) {
	c := NewCollection[model.Patient]("patients")

	require.NoError(t, c.Add(patientFixture("p1")))
	require.NoError(t, c.Add(patientFixture("p2")))

	got, ok := c.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "Patient p1", got.Name)

	_, ok = c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCollectionAddDuplicateID(t *testing.T) {
	c := NewCollection[model.Patient]("patients")
	require.NoError(t, c.Add(patientFixture("p1")))

	err := c.Add(patientFixture("p1"))
	require.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, c.Len(), "failed add must leave the collection unchanged")
}

func TestCollectionAddEmptyID(t *testing.T) {
	c := NewCollection[model.Patient]("patients")
	assert.Error(t, c.Add(model.Patient{}))
}

func TestCollectionListPreservesInsertionOrder(t *testing.T) {
	c := NewCollection[model.Patient]("patients")
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, c.Add(patientFixture(id)))
	}

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "b", list[2].ID)
}

func TestCollectionListReturnsCopy(t *testing.T) {
	c := NewCollection[model.Patient]("patients")
	require.NoError(t, c.Add(patientFixture("p1")))

	list := c.List()
	list[0].Name = "mutated"

	got, ok := c.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "Patient p1", got.Name, "mutating a listed copy must not touch the store")
}

func TestCollectionUpdate(t *testing.T) {
	c := NewCollection[model.Patient]("patients")
	require.NoError(t, c.Add(patientFixture("p1")))

	updated, err := c.Update("p1", func(p *model.Patient) error {
		p.Age = 41
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 41, updated.Age)

	got, _ := c.Get("p1")
	assert.Equal(t, 41, got.Age)
}

func TestCollectionUpdateMissing(t *testing.T) {
	c := NewCollection[model.Patient]("patients")
	_, err := c.Update("missing", func(p *model.Patient) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollectionUpdateRejectsIDChange(t *testing.T) {
	c := NewCollection[model.Patient]("patients")
	require.NoError(t, c.Add(patientFixture("p1")))

	_, err := c.Update("p1", func(p *model.Patient) error {
		p.ID = "p2"
		return nil
	})
	require.ErrorIs(t, err, ErrInvalidUpdate)

	got, ok := c.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "p1", got.ID, "rejected update must leave the record unchanged")
}

func TestCollectionDelete(t *testing.T) {
	c := NewCollection[model.Patient]("patients")
	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, c.Add(patientFixture(id)))
	}

	assert.True(t, c.Delete("p2"))
	assert.False(t, c.Delete("p2"))

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)
	assert.Equal(t, "p3", list[1].ID)

	// The index must be rebuilt after the splice.
	got, ok := c.Get("p3")
	require.True(t, ok)
	assert.Equal(t, "p3", got.ID)
}

func TestCollectionReplace(t *testing.T) {
	c := NewCollection[model.Patient]("patients")
	require.NoError(t, c.Add(patientFixture("old")))

	require.NoError(t, c.Replace([]model.Patient{patientFixture("n1"), patientFixture("n2")}))

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("old")
	assert.False(t, ok)
}

func TestCollectionReplaceRejectsDuplicates(t *testing.T) {
	c := NewCollection[model.Patient]("patients")
	require.NoError(t, c.Add(patientFixture("keep")))

	err := c.Replace([]model.Patient{patientFixture("dup"), patientFixture("dup")})
	require.ErrorIs(t, err, ErrDuplicateID)

	_, ok := c.Get("keep")
	assert.True(t, ok, "failed replace must leave the collection unchanged")
}

func TestCollectionConcurrentAdds(t *testing.T) {
	c := NewCollection[model.Patient]("patients")

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Add(patientFixture(fmt.Sprintf("p%03d", i)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, c.Len())
	for i := 0; i < n; i++ {
		_, ok := c.Get(fmt.Sprintf("p%03d", i))
		assert.True(t, ok)
	}
}
