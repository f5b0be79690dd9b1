// Package data embeds the provider fixture responses.
package data

import _ "embed"

//go:embed garuda.json
var GarudaData []byte

//go:embed lionair.json
var LionAirData []byte
