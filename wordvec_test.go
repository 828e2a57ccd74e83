package wordvec_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordvec"
	"github.com/hupe1980/wordvec/blobstore"
	"github.com/hupe1980/wordvec/codec"
	"github.com/hupe1980/wordvec/embedding"
)

func testEmbeddings(t *testing.T) *embedding.Embeddings {
	t.Helper()
	vocab, err := embedding.NewSimpleVocab([]string{"berlin", "paris", "tübingen"})
	require.NoError(t, err)
	storage, err := embedding.NewNdArray(3, 3, []float32{
		3, 0, 4,
		0, 2, 0,
		0, 0, 1,
	})
	require.NoError(t, err)
	norms := embedding.NormalizeRows(storage.Data(), 3, 3)
	emb, err := embedding.New(embedding.Metadata{"corpus": "test"}, vocab, storage, norms)
	require.NoError(t, err)
	return emb
}

func assertRows(t *testing.T, want, got *embedding.Embeddings) {
	t.Helper()
	require.Equal(t, want.Vocab().Words(), got.Vocab().Words())
	for _, w := range want.Vocab().Words() {
		a, _ := want.Embedding(w)
		b, ok := got.Embedding(w)
		require.True(t, ok)
		assert.InDeltaSlice(t, a, b, 1e-6, w)
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		uri     string
		want    wordvec.Location
		wantErr bool
	}{
		{uri: "wiki.fifu", want: wordvec.Location{Key: "wiki.fifu"}},
		{uri: "/data/wiki.vec.zst", want: wordvec.Location{Key: "/data/wiki.vec.zst"}},
		{uri: "s3://models/en/wiki.fifu", want: wordvec.Location{Scheme: "s3", Bucket: "models", Key: "en/wiki.fifu"}},
		{uri: "minio://models/wiki.fifu", want: wordvec.Location{Scheme: "minio", Bucket: "models", Key: "wiki.fifu"}},
		{uri: "s3://models", wantErr: true},
		{uri: "minio:///key", wantErr: true},
		{uri: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			loc, err := wordvec.ParseLocation(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, wordvec.ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc)
			assert.Equal(t, tt.uri, loc.String())
		})
	}
}

func TestSaveLoad_Formats(t *testing.T) {
	ctx := context.Background()
	emb := testEmbeddings(t)

	tests := []struct {
		name   string
		format codec.Format
	}{
		{"vectors.fifu", codec.FormatFinalfusion},
		{"vectors.fifu.zst", codec.FormatFinalfusion},
		{"vectors.bin.gz", codec.FormatWord2Vec},
		{"vectors.txt.lz4", codec.FormatText},
		{"vectors.dims", codec.FormatTextDims},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			require.NoError(t, wordvec.Save(ctx, path, emb, tt.format, true))

			got, err := wordvec.Load(ctx, path, tt.format)
			require.NoError(t, err)
			defer got.Close()
			assertRows(t, emb, got)
			assert.InDeltaSlice(t, []float32(emb.Norms()), []float32(got.Norms()), 1e-6)
		})
	}
}

func TestLoad_Mmap(t *testing.T) {
	ctx := context.Background()
	emb := testEmbeddings(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "vectors.fifu")
	require.NoError(t, wordvec.Save(ctx, path, emb, codec.FormatFinalfusion, false))

	got, err := wordvec.Load(ctx, path, codec.FormatFinalfusionMmap)
	require.NoError(t, err)
	_, isView := got.Storage().(*embedding.MmapArray)
	assert.True(t, isView)
	assertRows(t, emb, got)
	assert.Equal(t, emb.Metadata(), got.Metadata())
	require.NoError(t, got.Close())

	compressed := filepath.Join(dir, "vectors.fifu.gz")
	require.NoError(t, wordvec.Save(ctx, compressed, emb, codec.FormatFinalfusion, false))
	_, err = wordvec.Load(ctx, compressed, codec.FormatFinalfusionMmap)
	assert.ErrorIs(t, err, wordvec.ErrUnsupported)
}

func TestLoad_BlobStore(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	emb := testEmbeddings(t)

	require.NoError(t, wordvec.Save(ctx, "models/a.fifu", emb, codec.FormatFinalfusion, false,
		wordvec.WithBlobStore(store)))
	assert.Equal(t, []string{"models/a.fifu"}, store.List("models/"))

	got, err := wordvec.Load(ctx, "models/a.fifu", codec.FormatFinalfusion, wordvec.WithBlobStore(store))
	require.NoError(t, err)
	assertRows(t, emb, got)

	_, err = wordvec.Load(ctx, "models/a.fifu", codec.FormatFinalfusionMmap, wordvec.WithBlobStore(store))
	assert.ErrorIs(t, err, wordvec.ErrUnsupported, "memory blobs cannot be mapped")

	meta, err := wordvec.LoadMetadata(ctx, "models/a.fifu", wordvec.WithBlobStore(store))
	require.NoError(t, err)
	assert.Equal(t, embedding.Metadata{"corpus": "test"}, meta)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	metrics := &wordvec.BasicMetricsCollector{}

	_, err := wordvec.Load(ctx, filepath.Join(dir, "missing.fifu"), codec.FormatFinalfusion,
		wordvec.WithMetricsCollector(metrics))
	assert.True(t, wordvec.IsNotFound(err))

	path := filepath.Join(dir, "vectors.fifu")
	require.NoError(t, wordvec.Save(ctx, path, testEmbeddings(t), codec.FormatFinalfusion, false))

	_, err = wordvec.Load(ctx, path, codec.FormatFinalfusion, wordvec.WithExpectedDims(300),
		wordvec.WithMetricsCollector(metrics))
	var dm *wordvec.ErrDimensionMismatch
	require.True(t, errors.As(err, &dm))
	assert.Equal(t, 300, dm.Expected)
	assert.Equal(t, 3, dm.Actual)

	_, err = wordvec.Load(ctx, path, codec.FormatWord2Vec, wordvec.WithMetricsCollector(metrics))
	assert.Error(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.LoadCount)
	assert.Equal(t, int64(3), stats.LoadErrors)
}

func TestSave_UnsupportedLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	err := wordvec.Save(context.Background(), filepath.Join(dir, "out.bin"), testEmbeddings(t), codec.FormatFastText, false)
	assert.ErrorIs(t, err, wordvec.ErrUnsupported)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSave_Unnormalize(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.txt")
	require.NoError(t, wordvec.Save(ctx, path, testEmbeddings(t), codec.FormatText, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "berlin 3 0 4\nparis 0 2 0\ntübingen 0 0 1\n", string(data))
}
