// Package prompt gathers token parameters from the operator.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/solforge/mintforge/internal/config"
)

var (
	ErrBlankName     = errors.New("token name must not be blank")
	ErrBlankSymbol   = errors.New("token symbol must not be blank")
	ErrNotPositive   = errors.New("value must be a positive integer")
	ErrExceedsSupply = errors.New("premint amount exceeds total supply")
	ErrBadDecimals   = errors.New("decimals must be an integer between 0 and 255")
)

const defaultDecimals = "9"

// promptFunc runs one labelled prompt until validate accepts the input.
// Swapped out in tests.
type promptFunc func(label, defaultVal string, validate promptui.ValidateFunc) (string, error)

// Collector drives the interactive token parameter entry.
type Collector struct {
	prompt promptFunc
}

func New() *Collector {
	return &Collector{prompt: runPrompt}
}

func runPrompt(label, defaultVal string, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Default:  defaultVal,
		Validate: validate,
	}
	return p.Run()
}

// Collect prompts for every token parameter in order. Each field is
// validated before acceptance; the premint amount is checked against
// the supply entered just before it. No network calls happen here.
func (c *Collector) Collect() (config.TokenParams, error) {
	name, err := c.prompt("Token name", "", ValidateName)
	if err != nil {
		return config.TokenParams{}, fmt.Errorf("prompt: token name: %w", err)
	}

	symbol, err := c.prompt("Token symbol", "", ValidateSymbol)
	if err != nil {
		return config.TokenParams{}, fmt.Errorf("prompt: token symbol: %w", err)
	}

	supplyRaw, err := c.prompt("Total supply", "", ValidateAmount)
	if err != nil {
		return config.TokenParams{}, fmt.Errorf("prompt: total supply: %w", err)
	}
	supply, _ := strconv.ParseUint(strings.TrimSpace(supplyRaw), 10, 64)

	premintRaw, err := c.prompt("Premint amount", "", ValidatePremint(supply))
	if err != nil {
		return config.TokenParams{}, fmt.Errorf("prompt: premint amount: %w", err)
	}
	premint, _ := strconv.ParseUint(strings.TrimSpace(premintRaw), 10, 64)

	decimalsRaw, err := c.prompt("Decimals", defaultDecimals, ValidateDecimals)
	if err != nil {
		return config.TokenParams{}, fmt.Errorf("prompt: decimals: %w", err)
	}
	decimals, _ := strconv.ParseUint(strings.TrimSpace(decimalsRaw), 10, 8)

	imagePath, err := c.prompt("Token image path (optional)", "", ValidateImagePath)
	if err != nil {
		return config.TokenParams{}, fmt.Errorf("prompt: token image path: %w", err)
	}

	params := config.TokenParams{
		Name:        strings.TrimSpace(name),
		Symbol:      strings.TrimSpace(symbol),
		TotalSupply: supply,
		Premint:     premint,
		Decimals:    uint8(decimals),
		ImagePath:   strings.TrimSpace(imagePath),
	}
	if err := params.Validate(); err != nil {
		return config.TokenParams{}, err
	}
	return params, nil
}

func ValidateName(input string) error {
	if strings.TrimSpace(input) == "" {
		return ErrBlankName
	}
	return nil
}

func ValidateSymbol(input string) error {
	if strings.TrimSpace(input) == "" {
		return ErrBlankSymbol
	}
	return nil
}

// ValidateAmount accepts positive base-10 integers up to the u64 range.
func ValidateAmount(input string) error {
	v, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
	if err != nil || v == 0 {
		return ErrNotPositive
	}
	return nil
}

// ValidatePremint builds a validator bound to the supply the operator
// just entered.
func ValidatePremint(totalSupply uint64) promptui.ValidateFunc {
	return func(input string) error {
		v, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
		if err != nil || v == 0 {
			return ErrNotPositive
		}
		if v > totalSupply {
			return ErrExceedsSupply
		}
		return nil
	}
}

func ValidateDecimals(input string) error {
	if _, err := strconv.ParseUint(strings.TrimSpace(input), 10, 8); err != nil {
		return ErrBadDecimals
	}
	return nil
}

// ValidateImagePath accepts an empty input (no image) or a path to an
// existing local file.
func ValidateImagePath(input string) error {
	path := strings.TrimSpace(input)
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file not found: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}
	return nil
}
