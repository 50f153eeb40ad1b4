package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed suite.cue
var suiteContract string

// ValidateSuiteDocument checks a JSON encoded suite against the CUE contract.
func ValidateSuiteDocument(data []byte) error {
	ctx := cuecontext.New()

	contract := ctx.CompileString(suiteContract, cue.Filename("suite.cue"))
	if err := contract.Err(); err != nil {
		return fmt.Errorf("compile suite contract: %w", err)
	}

	doc := ctx.CompileBytes(data, cue.Filename("suite.json"))
	if err := doc.Err(); err != nil {
		return fmt.Errorf("parse suite document: %w", err)
	}

	unified := contract.LookupPath(cue.ParsePath("#Suite")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("suite contract: %w", err)
	}
	return nil
}

// ValidateSuiteContract encodes s as JSON and runs it through the contract.
func ValidateSuiteContract(s *Suite) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal suite: %w", err)
	}
	return ValidateSuiteDocument(data)
}
