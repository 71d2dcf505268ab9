// Package validation scores detection output against hand-labelled
// screenshots.
//
// A TestCase lists the entity names expected per category and, optionally,
// where some of them sit on screen. Validate reports what matched, what was
// missed and what was detected without being expected, per-category and
// overall accuracy, and how many annotated regions were found near their
// labelled position.
//
// Fixtures are plain JSON (LoadTestCases); ValidateSuite runs a detector over
// a whole fixture set and summarizes it.
package validation
