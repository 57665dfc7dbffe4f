// Package model defines shared data types used across the streamer.
//
// Conventions:
//   - Timestamps from the exchange arrive as milliseconds since Unix epoch
//     and are stored as DateTime64(3).
//   - Symbols are exchange-native identifiers (e.g. "BTCUSDT").
package model
