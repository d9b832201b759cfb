// SPDX-License-Identifier: Apache-2.0

package doctor

import "github.com/joomcode/errorx"

// ErrPropertyResolution lets an error carry its own resolution instructions,
// shown ahead of the generic resolution steps.
var ErrPropertyResolution = errorx.RegisterPrintableProperty("resolution")
