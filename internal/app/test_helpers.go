package app

import (
	"os"
	"testing"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/vk/h2integrate/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. It logs at
// debug level into the returned buffer; set H2I_TEST_LOGS=true to print
// it after the test.
func SetupAppTest(t *testing.T, appConfig *Config, loader config.Loader, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	appConfig.LogLevel = "debug"
	if appConfig.LogFormat == "" {
		appConfig.LogFormat = "text"
	}
	testApp := NewApp(logBuffer, appConfig, loader, modules...)

	t.Cleanup(func() {
		if os.Getenv("H2I_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
