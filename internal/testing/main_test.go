package testing

import (
	"flag"
	"fmt"
	"os"
	"testing"
)

var verboseSuite = flag.Bool("suite.verbose", false, "Print suite banners")

func TestMain(m *testing.M) {
	flag.Parse()

	if *verboseSuite {
		fmt.Println("🧪 Starting Monolog Storefront Test Suite")
		fmt.Println("=========================================")
	}

	exitCode := m.Run()

	if *verboseSuite {
		fmt.Println("\n🏁 Test Suite Complete")
	}
	os.Exit(exitCode)
}
