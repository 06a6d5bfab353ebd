package tests

import (
	"os"
	"testing"

	"github.com/minhaescola/backend/core"
)

func TestMain(m *testing.M) {
	// production error shapes, no recover middleware
	core.Conf.Debug = false
	core.Conf.TestMode = true

	os.Exit(m.Run())
}
