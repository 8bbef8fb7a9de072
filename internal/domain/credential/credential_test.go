package credential

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConventionNamer(t *testing.T) {
	n := ConventionNamer{}
	assert.Equal(t, "MY_SITE_PASSWORD", n.EnvVarName("my-site"))
	assert.Equal(t, "ADMIN_PASSWORD", n.EnvVarName("admin"))
	assert.Equal(t, "A_B_C_PASSWORD", n.EnvVarName("a-b_c"))
}

func TestAliasTable(t *testing.T) {
	table := NewAliasTable(map[string]string{
		"corp":    "CORP_SSO_PASSWORD",
		"preview": "PREVIEW_SITE_PASSWORD",
		"":        "IGNORED",
	}, nil)

	assert.Equal(t, "SHOPIFY_STORE_PASSWORD", table.EnvVarName("shopify-store"))
	assert.Equal(t, "STAGING_PASSWORD", table.EnvVarName("staging"))
	assert.Equal(t, "PREVIEW_SITE_PASSWORD", table.EnvVarName("preview"))
	assert.Equal(t, "CORP_SSO_PASSWORD", table.EnvVarName("corp"))
	assert.Equal(t, "CUSTOM_APP_PASSWORD", table.EnvVarName("custom-app"))
	assert.NotContains(t, table.Aliases(), "")
}

func TestResolve(t *testing.T) {
	store := map[string]string{
		"STAGING_PASSWORD": "from-store",
		"EMPTY_PASSWORD":   "",
	}
	r := NewResolver(nil, SourceFunc(func(name string) (string, bool) {
		v, ok := store[name]
		return v, ok
	}))

	t.Run("stored secret", func(t *testing.T) {
		b, err := r.Resolve("staging", "")
		require.NoError(t, err)
		assert.Equal(t, "from-store", b.Secret)
		assert.True(t, b.Stored)
		assert.False(t, b.FromCaller)
		assert.False(t, b.ShouldSave())
	})

	t.Run("caller password wins", func(t *testing.T) {
		b, err := r.Resolve("staging", "from-caller")
		require.NoError(t, err)
		assert.Equal(t, "from-caller", b.Secret)
		assert.True(t, b.FromCaller)
		assert.False(t, b.ShouldSave(), "store already has a value")
	})

	t.Run("caller password for unknown type", func(t *testing.T) {
		b, err := r.Resolve("my-site", "pw")
		require.NoError(t, err)
		assert.Equal(t, "MY_SITE_PASSWORD", b.EnvVarName)
		assert.True(t, b.ShouldSave())
	})

	t.Run("empty stored value counts as absent", func(t *testing.T) {
		_, err := r.Resolve("empty", "")
		var pr *PasswordRequired
		require.True(t, errors.As(err, &pr))
		assert.Equal(t, "EMPTY_PASSWORD", pr.EnvVarName)
	})

	t.Run("needs password", func(t *testing.T) {
		_, err := r.Resolve("preview", "")
		var pr *PasswordRequired
		require.True(t, errors.As(err, &pr))
		assert.Equal(t, "preview", pr.AuthType)
		assert.Equal(t, "PREVIEW_PASSWORD", pr.EnvVarName)
		assert.Contains(t, pr.Message(), "PREVIEW_PASSWORD")
		assert.Equal(t, "Please enter the password for preview:", pr.Prompt())
	})
}

func TestResolveFromProcessEnvironment(t *testing.T) {
	t.Setenv("STAGING_PASSWORD", "")
	os.Unsetenv("STAGING_PASSWORD")

	r := NewResolver(nil, nil)
	_, err := r.Resolve("staging", "")
	var pr *PasswordRequired
	require.True(t, errors.As(err, &pr))
	assert.Equal(t, "STAGING_PASSWORD", pr.EnvVarName)

	t.Setenv("STAGING_PASSWORD", "s3cret")
	b, err := r.Resolve("staging", "")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", b.Secret)
}

func TestDetectors(t *testing.T) {
	challenge := ChallengeDetector()
	pending := PendingDetector()

	tests := []struct {
		name          string
		url           string
		content       string
		wantChallenge bool
		wantPending   bool
	}{
		{"plain page", "https://shop.test/admin", "<h1>Dashboard</h1>", false, false},
		{"2fa url", "https://shop.test/login/2fa", "", true, true},
		{"mfa url", "https://shop.test/mfa/challenge", "", true, true},
		{"verify url", "https://shop.test/verify", "", true, true},
		{"authentication url", "https://shop.test/authentication", "", true, false},
		{"english text", "https://shop.test/login", "Enter the Verification Code we sent", true, true},
		{"mixed case", "https://shop.test/login", "TWO-FACTOR authentication", true, true},
		{"authenticator only", "https://shop.test/login", "Open your Authenticator app", true, false},
		{"japanese", "https://shop.test/login", "<p>認証コードを入力してください</p>", true, true},
		{"japanese one-time", "https://shop.test/login", "ワンタイムパスワード", true, true},
		{"half-width digit", "https://shop.test/login", "2段階認証", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantChallenge, challenge.Match(tt.url, tt.content))
			assert.Equal(t, tt.wantPending, pending.Match(tt.url, tt.content))
		})
	}
}

func TestEnvFileStoreSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("# settings\nFOO=bar\nSTAGING_PASSWORD=old\nBAZ=qux"), 0o600))

	env := map[string]string{}
	store := NewEnvFileStore(path)
	store.setenv = func(k, v string) error { env[k] = v; return nil }

	// Update in place
	require.NoError(t, store.Save("STAGING_PASSWORD", "new"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# settings\nFOO=bar\nSTAGING_PASSWORD=\"new\"\nBAZ=qux", string(data))
	assert.Equal(t, "new", env["STAGING_PASSWORD"])

	// Append a new entry
	require.NoError(t, store.Save("PREVIEW_PASSWORD", "p"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# settings\nFOO=bar\nSTAGING_PASSWORD=\"new\"\nBAZ=qux\n\n# Auto-saved password\nPREVIEW_PASSWORD=\"p\"\n", string(data))

	// Prefix collisions are not matches
	require.NoError(t, store.Save("FOO_PASSWORD", "x"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FOO=bar\n")
	assert.Contains(t, string(data), "FOO_PASSWORD=\"x\"\n")
}

func TestEnvFileStoreCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".env")
	store := NewEnvFileStore(path)
	store.setenv = func(string, string) error { return nil }

	require.NoError(t, store.Save("NEW_PASSWORD", "v"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\n# Auto-saved password\nNEW_PASSWORD=\"v\"\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEnvFileStoreRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	store := NewEnvFileStore(path)

	assert.ErrorIs(t, store.Save("1BAD", "v"), ErrInvalidEnvName)
	assert.ErrorIs(t, store.Save("A=B", "v"), ErrInvalidEnvName)
	assert.ErrorIs(t, store.Save("", "v"), ErrInvalidEnvName)
	assert.ErrorIs(t, store.Save("GOOD", "line1\nEVIL=1"), ErrInvalidSecret)
	assert.ErrorIs(t, store.Save("GOOD", ""), ErrInvalidSecret)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing should be written on rejection")
}

func TestEnvFileStoreLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	store := NewEnvFileStore(path)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.False(t, loaded)

	require.NoError(t, os.WriteFile(path, []byte("GATEWAY_TEST_FROM_FILE=file\nGATEWAY_TEST_EXISTING=file\n"), 0o600))
	t.Setenv("GATEWAY_TEST_EXISTING", "env")
	t.Setenv("GATEWAY_TEST_FROM_FILE", "")
	os.Unsetenv("GATEWAY_TEST_FROM_FILE")

	loaded, err = store.Load()
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "file", os.Getenv("GATEWAY_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("GATEWAY_TEST_EXISTING"), "existing variables win")
}

func TestEnvFileStoreRoundTripsSpecialCharacters(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	store := NewEnvFileStore(path)
	store.setenv = func(string, string) error { return nil }

	secrets := map[string]string{
		"HASH_PASSWORD":   "my pass #1",
		"SINGLE_PASSWORD": "'quoted'",
		"DOUBLE_PASSWORD": `say "hi"`,
		"SLASH_PASSWORD":  `back\slash`,
		"SPACE_PASSWORD":  "  padded  ",
	}
	for name, secret := range secrets {
		require.NoError(t, store.Save(name, secret))
	}
	// Updating in place keeps the encoding too.
	require.NoError(t, store.Save("HASH_PASSWORD", "new #2"))
	secrets["HASH_PASSWORD"] = "new #2"

	read, err := godotenv.Read(path)
	require.NoError(t, err)
	for name, secret := range secrets {
		assert.Equal(t, secret, read[name], name)
	}

	for name := range secrets {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "new #2", os.Getenv("HASH_PASSWORD"))
	assert.Equal(t, "'quoted'", os.Getenv("SINGLE_PASSWORD"))
}

func TestSaveThenResolve(t *testing.T) {
	t.Setenv("STAGING_PASSWORD", "")
	os.Unsetenv("STAGING_PASSWORD")

	store := NewEnvFileStore(filepath.Join(t.TempDir(), ".env"))
	h := NewHandshake(NewResolver(nil, nil), store, nil)

	_, err := h.Resolve("staging", "")
	var pr *PasswordRequired
	require.True(t, errors.As(err, &pr))

	require.NoError(t, h.Save("STAGING_PASSWORD", "saved"))

	b, err := h.Resolve("staging", "")
	require.NoError(t, err)
	assert.Equal(t, "saved", b.Secret)
	assert.True(t, b.Stored)
}
