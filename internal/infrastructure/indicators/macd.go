package indicators

type MACD struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// CalculateMACD computes EMA(fast) - EMA(slow) and its EMA(signal) line.
// The MACD line is defined from index slow-1 and the signal line from
// index slow+signal-2.
func CalculateMACD(closes []float64, fast, slow, signal int) MACD {
	length := len(closes)
	line := nanSlice(length)
	hist := nanSlice(length)

	emaFast := CalculateEMA(closes, fast)
	emaSlow := CalculateEMA(closes, slow)
	for i := 0; i < length; i++ {
		if Defined(emaFast[i]) && Defined(emaSlow[i]) {
			line[i] = emaFast[i] - emaSlow[i]
		}
	}

	first := -1
	for i, v := range line {
		if Defined(v) {
			first = i
			break
		}
	}

	sig := nanSlice(length)
	if first >= 0 {
		sig = emaFrom(line, signal, first)
	}

	for i := 0; i < length; i++ {
		if Defined(line[i]) && Defined(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}

	return MACD{Line: line, Signal: sig, Histogram: hist}
}

// CrossedAbove reports whether the MACD line crossed above its signal line
// on any bar of (idx-window, idx] and is still above it at idx.
func (m MACD) CrossedAbove(idx, window int) bool {
	if idx < 1 || idx >= len(m.Line) || window < 1 {
		return false
	}
	if !Defined(m.Line[idx]) || !Defined(m.Signal[idx]) || m.Line[idx] <= m.Signal[idx] {
		return false
	}

	for j := idx; j > idx-window && j >= 1; j-- {
		prevLine, prevSig := m.Line[j-1], m.Signal[j-1]
		curLine, curSig := m.Line[j], m.Signal[j]
		if !Defined(prevLine) || !Defined(prevSig) || !Defined(curLine) || !Defined(curSig) {
			continue
		}
		if prevLine <= prevSig && curLine > curSig {
			return true
		}
	}
	return false
}
