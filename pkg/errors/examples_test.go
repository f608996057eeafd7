package errors_test

import (
	"fmt"

	"github.com/agentstation/curator/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := &errors.NotFoundError{
		Resource: "proposal",
		ID:       "42",
	}

	if errors.IsNotFound(err) {
		fmt.Println("Proposal not found")
	}

	// Output: Proposal not found
}

// Example_collector demonstrates merging writer validation messages
// during a batch without aborting it.
func Example_collector() {
	collector := errors.NewCollector()

	verrs := errors.NewValidationErrors()
	verrs.Add("dcterms:title", "a value is required")
	collector.Add("12", verrs)

	for _, key := range collector.Keys() {
		v := collector.Validation(key)
		for _, field := range v.Fields() {
			fmt.Printf("%s %s: %v\n", key, field, v.Messages(field))
		}
	}

	// Output: 12 dcterms:title: [a value is required]
}
