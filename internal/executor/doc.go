/*
Package executor submits analysis requests to the remote analysis service.

# Overview

The executor package provides:
  - A single POST of a prepared types.AnalysisRequest to a fixed endpoint
  - Decoding of the JSON response into types.AnalysisResponse
  - A uniform RequestFailed error for every failure path
  - TLS/mTLS and bearer token configuration

# Request Handling

Client.Submit:
  - Copies explicit headers from the request
  - Applies the encoder-supplied Content-Type (multipart boundary)
  - Sends X-Request-ID when the context carries a submission id
  - Makes exactly one attempt; there are no retries

# Response Handling

Any 2xx status is a success. The body is decoded as JSON and returned
without looking at the nested result; interpreting the polymorphic shape is
the caller's job.

Any other status, a transport fault, or a 2xx body that is not JSON yields
*RequestFailed. Status is set when a response was received. 4xx and 5xx
are not distinguished.

# TLS Configuration

TLS support includes:
  - Custom CA certificates
  - Client certificates (mTLS)
  - InsecureSkipVerify for development

# Timeouts

ClientConfig.Timeout bounds the whole exchange (default 180s). Zero leaves a
request unbounded. Cancelling the context ends the request with
RequestFailed.

# Example Usage

	client, err := executor.NewClient(executor.ClientConfig{
		Endpoint: "http://127.0.0.1:8000/api/analyze",
		Timeout:  executor.DefaultTimeout,
	})
	if err != nil {
		return err
	}

	req, _ := request.Build("paper abstract", types.ModePlagiarism, nil)
	resp, err := client.Submit(ctx, req)
	if executor.IsRequestFailed(err) {
		// show the generic failure view
	}
*/
package executor
