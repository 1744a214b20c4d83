// Package prediction is the boundary to fire-risk forecasting models.
// Predictors emit candidates with a fire probability; high-confidence
// candidates are turned into incidents for the dispatch engine. The model
// itself lives outside this module.
package prediction
