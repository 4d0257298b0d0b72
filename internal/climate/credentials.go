package climate

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/riverscapes/qris/internal/common"
	"github.com/riverscapes/qris/pkg/types"
)

// apiKeySetting is the settings key holding the Climate Engine API key.
// The environment form is QRIS_CLIMATE_ENGINE_API_KEY.
const apiKeySetting = "climate_engine_api_key"

// APIKey resolves the Climate Engine credential: a .env file in the
// working directory is folded into the environment first, then the
// settings store (config file or QRIS_* environment) is consulted.
// Returns ErrMissingCredential when no key is configured.
func APIKey(v *viper.Viper) (string, error) {
	if err := godotenv.Load(); err == nil {
		common.Logger().Debug("climate: loaded .env file")
	}

	v.SetEnvPrefix("QRIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	key := strings.TrimSpace(v.GetString(apiKeySetting))
	if key == "" {
		return "", fmt.Errorf("%w: set %s in the config file or QRIS_CLIMATE_ENGINE_API_KEY",
			types.ErrMissingCredential, apiKeySetting)
	}
	return key, nil
}
