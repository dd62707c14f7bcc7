// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command framework for the kfdinfo binary:
// the [Command] tree with help synthesis and did-you-mean
// suggestions, struct-tag flag binding via [BindFlags], the
// embeddable [JSONOutput] parameter block, [ExitError] for handled
// non-zero exits, and the standard command logger.
package cli
