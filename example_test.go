package wordvec_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/wordvec"
	"github.com/hupe1980/wordvec/blobstore"
	"github.com/hupe1980/wordvec/codec"
	"github.com/hupe1980/wordvec/embedding"
	"github.com/hupe1980/wordvec/similarity"
)

func exampleEmbeddings() *embedding.Embeddings {
	// dimensions: royal, male, female
	words := []string{"king", "man", "woman", "queen"}
	data := []float32{
		1, 1, 0,
		0, 1, 0,
		0, 0, 1,
		1, 0, 1,
	}
	vocab, err := embedding.NewSimpleVocab(words)
	if err != nil {
		log.Fatal(err)
	}
	storage, err := embedding.NewNdArray(len(words), 3, data)
	if err != nil {
		log.Fatal(err)
	}
	norms := embedding.NormalizeRows(storage.Data(), 3, len(words))
	emb, err := embedding.New(nil, vocab, storage, norms)
	if err != nil {
		log.Fatal(err)
	}
	return emb
}

// Example_saveAndLoad round-trips embeddings through an in-memory store.
func Example_saveAndLoad() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	// zstd compression is picked from the suffix
	err := wordvec.Save(ctx, "models/royalty.fifu.zst", exampleEmbeddings(), codec.FormatFinalfusion, false,
		wordvec.WithBlobStore(store))
	if err != nil {
		log.Fatal(err)
	}

	emb, err := wordvec.Load(ctx, "models/royalty.fifu.zst", codec.FormatFinalfusion,
		wordvec.WithBlobStore(store),
		wordvec.WithExpectedDims(3))
	if err != nil {
		log.Fatal(err)
	}
	defer emb.Close()

	fmt.Println(emb.Len(), emb.Dims())
	// Output: 4 3
}

// Example_analogy answers "man is to king as woman is to ?".
func Example_analogy() {
	ranker, err := similarity.NewRanker(exampleEmbeddings())
	if err != nil {
		log.Fatal(err)
	}

	results, err := ranker.Analogy([3]string{"man", "king", "woman"}, 1)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(results[0].Word)
	// Output: queen
}

// ExampleParseLocation shows how embedding URIs map to blob stores.
func ExampleParseLocation() {
	for _, uri := range []string{"vectors.fifu", "s3://models/en/vectors.fifu", "minio://models/vectors.bin"} {
		loc, err := wordvec.ParseLocation(uri)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%q %q %q\n", loc.Scheme, loc.Bucket, loc.Key)
	}
	// Output:
	// "" "" "vectors.fifu"
	// "s3" "models" "en/vectors.fifu"
	// "minio" "models" "vectors.bin"
}
