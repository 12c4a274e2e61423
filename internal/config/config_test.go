package config

import (
	"testing"

	"github.com/mansoorceksport/examcore/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolveMaxFileSize(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  int64
	}{
		{"default 10 means 10 MB", 10, 10 * 1024 * 1024},
		{"1 means 1 MB", 1, 1024 * 1024},
		{"100 is the last MB value", 100, 100 * 1024 * 1024},
		{"101 is taken as bytes", 101, 101},
		// Inherited quirk: a value meant as 200 MB resolves to 200 bytes.
		// The heuristic cannot tell these apart; documented, not fixed.
		{"200 is taken as bytes", 200, 200},
		{"explicit byte limit", 5242880, 5242880},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveMaxFileSize(tt.value))
		})
	}
}

func TestUploadPolicy(t *testing.T) {
	cfg := &Config{}
	cfg.Server.MaxFileSize = 10
	cfg.Server.MaxFileSizeBytes = ResolveMaxFileSize(cfg.Server.MaxFileSize)

	policy := cfg.UploadPolicy()

	assert.Equal(t, int64(10*1024*1024), policy.MaxBytes)
	assert.True(t, policy.AllowsMIME("image/jpeg"))
	assert.True(t, policy.AllowsMIME("image/png"))
	assert.True(t, policy.AllowsMIME("image/webp"))
	assert.False(t, policy.AllowsMIME("application/pdf"))
	assert.False(t, policy.AllowsMIME(""))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Server.MaxFileSize = 10
		cfg.Upload.StorageType = domain.StorageTypeLocal
		cfg.JWT.Secret = "secret"
		cfg.Firebase.ProjectID = "p"
		cfg.Firebase.PrivateKey = "k"
		cfg.Firebase.ClientEmail = "e"
		return cfg
	}

	t.Run("valid local config", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.JWT.Secret = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown storage type", func(t *testing.T) {
		cfg := base()
		cfg.Upload.StorageType = "ftp"
		assert.Error(t, cfg.Validate())
	})

	t.Run("s3 requires endpoint and bucket", func(t *testing.T) {
		cfg := base()
		cfg.Upload.StorageType = domain.StorageTypeS3
		assert.Error(t, cfg.Validate())

		cfg.S3.Endpoint = "http://localhost:8333"
		cfg.S3.Bucket = "uploads"
		assert.NoError(t, cfg.Validate())
	})
}
