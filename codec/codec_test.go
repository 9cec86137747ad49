package codec

import (
	"bytes"
	"testing"

	"github.com/hupe1980/contactbook/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())
	}

	c, ok := ByName("")
	require.True(t, ok)
	assert.Equal(t, Default.Name(), c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
	assert.Panics(t, func() { MustByName("msgpack") })
}

func TestCodecs_Interchangeable(t *testing.T) {
	in := []model.Contact{
		{ID: 1, Name: "Alice", Email: "alice@example.com"},
		{ID: 2, Name: "Élodie", Email: "elodie@example.fr"},
	}

	data, err := JSON{}.Marshal(in)
	require.NoError(t, err)

	var out []model.Contact
	require.NoError(t, GoJSON{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestCompressors(t *testing.T) {
	payloads := map[string][]byte{
		"Empty":        {},
		"Small":        []byte("x"),
		"Compressible": bytes.Repeat([]byte("alice@example.com,"), 500),
	}

	for _, name := range []string{"none", "zstd", "lz4"} {
		c, ok := CompressorByName(name)
		require.True(t, ok)
		assert.Equal(t, name, c.Name())

		for pname, data := range payloads {
			t.Run(name+"/"+pname, func(t *testing.T) {
				enc, err := c.Compress(data)
				require.NoError(t, err)

				dec, err := c.Decompress(enc)
				require.NoError(t, err)
				assert.Equal(t, len(data), len(dec))
				assert.True(t, bytes.Equal(data, dec))
			})
		}
	}
}

func TestCompressors_ShrinkRepetitiveData(t *testing.T) {
	data := bytes.Repeat([]byte("bob@example.org;"), 1000)

	for _, c := range []Compressor{Zstd{}, LZ4{}} {
		enc, err := c.Compress(data)
		require.NoError(t, err)
		assert.Less(t, len(enc), len(data)/2, c.Name())
	}
}

func TestCompressors_Corrupt(t *testing.T) {
	for _, c := range []Compressor{Zstd{}, LZ4{}} {
		_, err := c.Decompress([]byte{1, 2})
		assert.ErrorIs(t, err, ErrCorruptBlock)

		enc, err := c.Compress(bytes.Repeat([]byte("abc"), 100))
		require.NoError(t, err)
		_, err = c.Decompress(enc[:len(enc)-1])
		assert.ErrorIs(t, err, ErrCorruptBlock)
	}
}

func TestCompressorByName_Unknown(t *testing.T) {
	_, ok := CompressorByName("brotli")
	assert.False(t, ok)
}
