/*
 * balance.go, part of nbforce.
 *
 * Copyright 2024 Raul Mera <rmera{at}usachDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package histo

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxLoad is the largest load, relative to the mean, that the
// balance histograms hold.
const MaxLoad = 2.0

// Balance summarizes how the inner iterations of a threaded kernel call
// were spread among the workers.
type Balance struct {
	Workers   int     `json:"workers"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"stddev"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Imbalance float64 `json:"imbalance"` //Max/Mean, 1 for a perfect balance
	Loads     *Data   `json:"loads"`     //per worker load over the mean

	//Relative are the per worker loads over the mean.
	Relative []float64 `json:"-"`
}

// LoadDividers returns the dividers of bins equal bins between 0 and MaxLoad.
func LoadDividers(bins int) []float64 {
	return floats.Span(make([]float64, max(bins, 1)+1), 0, MaxLoad)
}

// NewBalance returns the summary of the per-worker counts, with a histogram
// of bins bins between 0 and MaxLoad times the mean. It returns nil if
// perWorker is empty.
func NewBalance(perWorker []int, bins int) *Balance {
	if len(perWorker) == 0 {
		return nil
	}
	loads := make([]float64, len(perWorker))
	for i, v := range perWorker {
		loads[i] = float64(v)
	}
	B := &Balance{Workers: len(loads)}
	B.Mean, B.StdDev = stat.MeanStdDev(loads, nil)
	if len(loads) == 1 {
		B.StdDev = 0
	}
	B.Min = floats.Min(loads)
	B.Max = floats.Max(loads)
	B.Imbalance = 1
	if B.Mean > 0 {
		B.Imbalance = B.Max / B.Mean
		floats.Scale(1/B.Mean, loads)
	}
	B.Relative = loads
	//ReHisto sorts its data
	B.Loads = NewData(LoadDividers(bins), slices.Clone(loads))
	return B
}

func (B *Balance) String() string {
	return fmt.Sprintf("workers: %d mean: %.1f stddev: %.1f min: %.0f max: %.0f imbalance: %.3f",
		B.Workers, B.Mean, B.StdDev, B.Min, B.Max, B.Imbalance)
}
