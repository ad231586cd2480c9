/*
Package types defines core data structures used throughout twins.

# Overview

The types package provides shared type definitions for:
  - Analysis modes and user input
  - The request sent to the analysis service
  - The polymorphic response and its nested result shapes
  - Session state and history entries

# Modes

Mode is either "plagiarism" (near-duplicate text detection) or
"doppelganger" (conceptual similarity discovery). ParseMode validates user
input; Label, Hint and ActionLabel hold the user-facing strings.

# Request Types

AnalysisInput:
  - Free text and/or a PDF File
  - Ready() is the submission precondition (trimmed text or a file)

AnalysisRequest:
  - Either a JSON body {text, mode} or a multipart body {mode, file}
  - ContentType is owned by the encoder (multipart boundary)
  - Headers holds explicitly set headers only

# Response Types

AnalysisResponse:
  - Mode tag plus the raw nested result
  - The client never validates the nested shape

Nested results:
  - PlagiarismResult: "plagiarism" (title/reason/url) or "no_plagiarism"
  - DoppelgangerResult: top-3 selection with justification, the full
    list of matches with reasons, and a total count

# Field Tags

Wire types use the service's snake_case JSON names. Types that are also
printed by the CLI carry YAML tags.
*/
package types
