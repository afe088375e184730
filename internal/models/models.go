// Package models provides domain models for the market advisor.
package models

import (
	"time"
)

// Source identifies an upstream market-data provider.
type Source string

const (
	SourceTCBS Source = "TCBS"
	SourceVCI  Source = "VCI"
)

// Interval is the bar interval requested from a provider.
type Interval string

const (
	IntervalDay   Interval = "1D"
	IntervalWeek  Interval = "1W"
	IntervalMonth Interval = "1M"
)

// PriceBar represents one trading session.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Valid reports whether the bar satisfies high >= max(open, close) >= min(open, close) >= low >= 0.
func (b PriceBar) Valid() bool {
	hi := b.Open
	lo := b.Close
	if b.Close > hi {
		hi = b.Close
	}
	if b.Open < lo {
		lo = b.Open
	}
	return b.High >= hi && lo >= b.Low && b.Low >= 0 && b.Volume >= 0
}

// PriceSeries is the ordered bar history of one ticker over a requested window.
type PriceSeries struct {
	Symbol   string     `json:"symbol"`
	Source   Source     `json:"source"`
	Interval Interval   `json:"interval"`
	From     time.Time  `json:"from"`
	To       time.Time  `json:"to"`
	Bars     []PriceBar `json:"bars"`
}

// Len returns the number of bars.
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// Latest returns the most recent bar. ok is false for an empty series.
func (s PriceSeries) Latest() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Tail returns the last n bars, or all bars when the series is shorter.
func (s PriceSeries) Tail(n int) []PriceBar {
	if n <= 0 {
		return nil
	}
	if n >= len(s.Bars) {
		return s.Bars
	}
	return s.Bars[len(s.Bars)-n:]
}

// Closes extracts close prices in order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// PopularTicker is an entry of the quick-pick ticker list.
type PopularTicker struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// PopularTickers lists the commonly followed HOSE tickers.
var PopularTickers = []PopularTicker{
	{Symbol: "VNM", Name: "Vinamilk"},
	{Symbol: "VCB", Name: "Vietcombank"},
	{Symbol: "FPT", Name: "FPT Corp"},
	{Symbol: "HPG", Name: "Hòa Phát"},
	{Symbol: "VHM", Name: "Vinhomes"},
	{Symbol: "VIC", Name: "Vingroup"},
	{Symbol: "MWG", Name: "Mobile World"},
	{Symbol: "VRE", Name: "Vincom Retail"},
	{Symbol: "GAS", Name: "PV Gas"},
	{Symbol: "MSN", Name: "Masan Group"},
}

// PopularSymbols returns the symbols of PopularTickers.
func PopularSymbols() []string {
	symbols := make([]string, len(PopularTickers))
	for i, t := range PopularTickers {
		symbols[i] = t.Symbol
	}
	return symbols
}
