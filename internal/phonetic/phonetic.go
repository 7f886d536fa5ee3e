// Package phonetic implements the Phonetic Kernel (spec.md C8):
// feature-weighted dynamic time warping over IPA grapheme sequences, with
// a data-parallel batch API.
package phonetic

// Segment splits an IPA string into graphemes, dropping suprasegmental
// stress marks and folding length marks into the preceding segment's
// length feature.
func Segment(ipa string) []segment {
	runes := []rune(ipa)
	segs := make([]segment, 0, len(runes))

	for _, r := range runes {
		if stressMarks[r] {
			continue
		}
		if lengthMarks[r] {
			if len(segs) > 0 {
				segs[len(segs)-1].fv[fLength] = 1.0
			}
			continue
		}
		if fv, ok := featuresFor(r); ok {
			segs = append(segs, segment{fv: fv})
			continue
		}
		segs = append(segs, segment{fv: wildcardVector, isWildcard: true})
	}

	return segs
}

func featureDistance(a, b segment) float64 {
	if a.isWildcard || b.isWildcard {
		return wildcardPenalty
	}
	var sum float64
	for i := range a.fv {
		d := a.fv[i] - b.fv[i]
		if d < 0 {
			d = -d
		}
		sum += d * featureWeights[i]
	}
	var wsum float64
	for _, w := range featureWeights {
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

const gapCost = 1.0

// dtwCost runs dynamic time warping over two feature-segment sequences.
// Substitution cost is the fixed wildcard penalty if either segment is an
// undefined phoneme (even when both are the same undefined grapheme), else
// the weighted feature distance, which is 0 for identical segments;
// deletion/insertion cost is the fixed gap cost.
func dtwCost(a, b []segment) float64 {
	la, lb := len(a), len(b)
	if la == 0 && lb == 0 {
		return 0
	}

	dp := make([][]float64, la+1)
	for i := range dp {
		dp[i] = make([]float64, lb+1)
	}
	for i := 1; i <= la; i++ {
		dp[i][0] = dp[i-1][0] + gapCost
	}
	for j := 1; j <= lb; j++ {
		dp[0][j] = dp[0][j-1] + gapCost
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			sub := dp[i-1][j-1] + featureDistance(a[i-1], b[j-1])
			del := dp[i-1][j] + gapCost
			ins := dp[i][j-1] + gapCost
			m := sub
			if del < m {
				m = del
			}
			if ins < m {
				m = ins
			}
			dp[i][j] = m
		}
	}

	return dp[la][lb]
}

func maxCost(la, lb int) float64 {
	m := la
	if lb > m {
		m = lb
	}
	if m == 0 {
		return 1
	}
	return float64(m)
}

// Distance computes normalized phonetic dissimilarity in [0, 1] between two
// IPA strings: dtw cost normalized by the longer sequence's length.
// Distance(a, a) == 0 (identical strings return early, so an undefined
// phoneme's wildcard penalty never applies to them) and
// Distance(a, b) == Distance(b, a) for all a, b, since the underlying cost
// matrix is symmetric in its inputs.
func Distance(ipaA, ipaB string) float64 {
	if ipaA == ipaB {
		return 0
	}
	segA := Segment(ipaA)
	segB := Segment(ipaB)
	cost := dtwCost(segA, segB)
	return cost / maxCost(len(segA), len(segB))
}

// Similarity is 1 - Distance, clamped to [0, 1].
func Similarity(ipaA, ipaB string) float64 {
	d := Distance(ipaA, ipaB)
	s := 1 - d
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
