package catalogdata

import "embed"

// SeedFS contains the sample catalog loaded by `mcat seed`.
//
//go:embed seed/*.yaml
var SeedFS embed.FS
