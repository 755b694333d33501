package services

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernhardware/api/app/repositories"
	"github.com/modernhardware/api/pkg/storage"
)

func TestProductListFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	seedProduct(t, db, "Claw Hammer", 850, 10)
	seedProduct(t, db, "Sledge Hammer", 2400, 4)
	p := seedProduct(t, db, "Cordless Drill", 7500, 5)
	p.Category = "power-tools"
	p.Featured = true
	require.NoError(t, db.Save(&p).Error)

	got, _, err := svc.List(repositories.ProductFilter{Search: "Hammer"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, _, err = svc.List(repositories.ProductFilter{Category: "power-tools"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cordless Drill", got[0].Name)

	got, _, err = svc.List(repositories.ProductFilter{MinPrice: 1000, MaxPrice: 5000})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Sledge Hammer", got[0].Name)

	got, _, err = svc.List(repositories.ProductFilter{Featured: true})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestProductListPagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	for i := 0; i < 25; i++ {
		seedProduct(t, db, "Item", 100, 1)
	}

	got, page, err := svc.List(repositories.ProductFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.Pages)
}

func TestProductCategories(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)

	for _, c := range []string{"tools", "paint", "tools", ""} {
		p := seedProduct(t, db, "P", 100, 1)
		p.Category = c
		require.NoError(t, db.Save(&p).Error)
	}

	cats, err := svc.Categories()
	require.NoError(t, err)
	assert.Equal(t, []string{"paint", "tools"}, cats)
}

// fakeDisk records uploads in memory.
type fakeDisk struct {
	files map[string][]byte
}

func (d *fakeDisk) Put(path string, content []byte) error {
	d.files[path] = content
	return nil
}
func (d *fakeDisk) PutStream(path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return d.Put(path, data)
}
func (d *fakeDisk) Get(path string) ([]byte, error) {
	return d.files[path], nil
}
func (d *fakeDisk) GetStream(path string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(d.files[path])), nil
}
func (d *fakeDisk) Exists(path string) bool {
	_, ok := d.files[path]
	return ok
}
func (d *fakeDisk) Delete(path string) error {
	delete(d.files, path)
	return nil
}
func (d *fakeDisk) URL(path string) string { return "https://cdn.test/" + path }

func TestAttachImage(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db)
	p := seedProduct(t, db, "Workbench", 12000, 2)

	disk := &fakeDisk{files: map[string][]byte{}}
	storage.RegisterDisk("fake", disk)
	storage.SetDefault("fake")
	t.Cleanup(func() { storage.SetDefault("local") })

	key := fmt.Sprintf("products/%d.jpg", p.ID)
	got, err := svc.AttachImage(p.ID, "bench.jpg", []byte("jpegdata"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/"+key, got.ImageURL)
	assert.True(t, disk.Exists(key))

	_, err = svc.AttachImage(9999, "x.jpg", []byte("x"))
	assert.ErrorIs(t, err, ErrNotFound)
}
