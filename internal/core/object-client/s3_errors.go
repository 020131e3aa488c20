package objectclient

import (
	"errors"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/markdave123-py/storagegate/internal/core"
)

func classifyS3Error(op, key string, err error) error {
	return core.NewStorageError(s3ErrorKind(err), op, key, err)
}

// s3ErrorKind reserves KindNotFound for a missing object. A missing bucket
// also answers 404 but is a deployment fault, so it stays KindUnknown.
func s3ErrorKind(err error) core.ErrorKind {
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return core.KindUnknown
	}

	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return core.KindNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return core.KindUnknown
		case "NoSuchKey", "NotFound":
			return core.KindNotFound
		case "InvalidArgument", "KeyTooLongError", "InvalidObjectName":
			return core.KindInvalidInput
		case "SlowDown", "ServiceUnavailable", "InternalError", "RequestTimeout":
			return core.KindUpstreamUnavailable
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch status := respErr.HTTPStatusCode(); {
		case status == http.StatusNotFound:
			return core.KindNotFound
		case status >= http.StatusInternalServerError:
			return core.KindUpstreamUnavailable
		}
	}

	return core.KindOf(err)
}
