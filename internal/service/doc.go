// Package service implements the application's business operations on top of
// the store interfaces. It contains the task lifecycle logic: optimistic
// concurrency control on updates and load-balanced owner assignment on
// creation.
package service
