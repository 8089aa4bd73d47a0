package integrations_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/nugetaudit/pkg/integrations"
)

func ExampleNormalizeRepoURL() {
	// Various repository URL formats are normalized to HTTPS
	fmt.Println(integrations.NormalizeRepoURL("git@github.com:serilog/serilog.git"))
	fmt.Println(integrations.NormalizeRepoURL("git://github.com/serilog/serilog"))
	fmt.Println(integrations.NormalizeRepoURL("git+https://github.com/serilog/serilog.git"))
	fmt.Println(integrations.NormalizeRepoURL("https://github.com/serilog/serilog"))
	// Output:
	// https://github.com/serilog/serilog
	// https://github.com/serilog/serilog
	// https://github.com/serilog/serilog
	// https://github.com/serilog/serilog
}

func Example_errors() {
	// A 404 is distinguishable from every other upstream failure
	err := fmt.Errorf("fetch catalog root: %w", integrations.ErrNotFound)
	fmt.Println(errors.Is(err, integrations.ErrNotFound))
	fmt.Println(errors.Is(err, integrations.ErrNetwork))
	// Output:
	// true
	// false
}
