package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsInDevMode(t *testing.T) {
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 20*time.Second, cfg.SideEffectTimeout)
	assert.Equal(t, 4, cfg.SideEffectWorkers)
	assert.Equal(t, 72*time.Hour, cfg.CartTTL)
	assert.Equal(t, 10000, cfg.CartCapacity)
	assert.False(t, cfg.NeedsFirebase())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "AUTH_MODE=dev\nBREVO_LIST_ID=7\nADMIN_EMAIL=boss@qg.test\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("BREVO_LIST_ID")
		os.Unsetenv("ADMIN_EMAIL")
	})
	t.Setenv("AUTH_MODE", "")
	os.Unsetenv("AUTH_MODE")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.BrevoListID)
	assert.Equal(t, "boss@qg.test", cfg.AdminEmail)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Configuration
		wantErr bool
	}{
		{"memory dev", Configuration{StorageDriver: StorageMemory, AuthMode: AuthDev, SideEffectWorkers: 1}, false},
		{"firestore without project", Configuration{StorageDriver: StorageFirestore, AuthMode: AuthDev, SideEffectWorkers: 1}, true},
		{"firebase auth without project", Configuration{StorageDriver: StorageMemory, AuthMode: AuthFirebase, SideEffectWorkers: 1}, true},
		{"unknown driver", Configuration{StorageDriver: "mongo", AuthMode: AuthDev, SideEffectWorkers: 1}, true},
		{"unknown auth", Configuration{StorageDriver: StorageMemory, AuthMode: "basic", SideEffectWorkers: 1}, true},
		{"no workers", Configuration{StorageDriver: StorageMemory, AuthMode: AuthDev}, true},
		{"firestore ok", Configuration{StorageDriver: StorageFirestore, AuthMode: AuthFirebase, FirebaseProjectID: "qg", SideEffectWorkers: 2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
