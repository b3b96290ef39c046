// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package align_test

import (
	"fmt"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/sequence"
)

func ExampleAlign() {
	original := sequence.MustParse("ATGCTAGCTAGCTAGCTAGCTAGCTAGCTAGGCATCGATCGAT")
	edited := sequence.MustParse("ATGCTAGCGAGCTAGCTAGCAAACTAGCTAGGCATCGATCGAT")

	res := align.Align(original, edited)

	fmt.Println(res.Summary())
	fmt.Println(res.EditScript())

	// Output:
	// 3 substitutions (93.0% similar)
	// s8Gs12As2A
}

func ExampleFormatPairwise() {
	res, err := align.Strings("acgtacgtac", "ACTTACGAC")
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Print(align.FormatPairwise(res, 6))

	// Output:
	// original  1 ACGTAC 6
	//             ||*|||
	// edited    1 ACTTAC 6
	//
	// original  7 GTAC 10
	//             | ||
	// edited    7 G-AC 9
}

func ExampleStrings_invalid() {
	_, err := align.Strings("ACGX", "ACGT")
	fmt.Println(err)

	// Output:
	// original: invalid base 'X' at index 3; allowed: A C G T
}
