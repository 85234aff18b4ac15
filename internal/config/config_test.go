package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORE_DRIVER", "MONGO_URI", "MONGO_DB", "FRONTEND_ORIGINS", "TZ", "PREFS_TTL_HOURS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "elearning", cfg.MongoDB)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.FrontendOrigins)
	assert.Equal(t, 30*24*time.Hour, cfg.PrefsTTL())
	assert.Equal(t, time.UTC, cfg.Timezone)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("MONGO_URI", "mongodb://db:27017/academy?retryWrites=true")
	t.Setenv("MONGO_DB", "")
	t.Setenv("FRONTEND_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("CACHE_TTL_SECONDS", "nope")
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "academy", cfg.MongoDB)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.FrontendOrigins)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL())
	assert.True(t, cfg.CookieSecure)
}

func TestLoadRejectsBadDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", DriverFirestore)
	t.Setenv("FIRESTORE_PROJECT_ID", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestMongoDBFromURI(t *testing.T) {
	assert.Equal(t, "shop", mongoDBFromURI("mongodb://localhost/shop/extra"))
	assert.Equal(t, "", mongoDBFromURI("mongodb://localhost:27017"))
}
