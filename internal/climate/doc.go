// Package climate tracks the project's climate stations: their base-station
// map references, per-cell coverage weights, and precipitation scaling
// (isohyet) grids. Validation guarantees that every covered model cell has a
// uniquely dominant station before the worldfile step bakes station
// assignments into the template.
package climate
