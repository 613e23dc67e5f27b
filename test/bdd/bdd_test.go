package bdd

import (
	"os"
	"testing"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/upgrade-planner/test/bdd/steps"
	"github.com/andrescamacho/upgrade-planner/test/helpers"
)

func TestMain(m *testing.M) {
	if err := helpers.InitializeSharedTestDB(); err != nil {
		panic(err)
	}
	code := m.Run()
	_ = helpers.CloseSharedTestDB()
	os.Exit(code)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/domain", "features/application"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	steps.InitializeSchedulerScenario(sc)
	steps.InitializePlanningScenario(sc)
}
