package importer

import (
	"context"

	"github.com/evergreen-ci/pail"
	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"

	"github.com/evergreen-ci/plateau"
)

// BucketType describes the name of the blob storage backing a pail
// Bucket implementation.
type BucketType string

const (
	BucketS3    BucketType = plateau.BucketS3
	BucketLocal BucketType = plateau.BucketLocal

	defaultS3Region = "us-east-1"
	s3MaxRetries    = 10
)

// Create returns a checked pail Bucket backed by the BucketType.
func (t BucketType) Create(ctx context.Context, conf plateau.BucketConfig) (pail.Bucket, error) {
	var b pail.Bucket
	var err error

	switch t {
	case BucketS3:
		region := conf.Region
		if region == "" {
			region = defaultS3Region
		}

		opts := pail.S3Options{
			Name:       conf.Name,
			Prefix:     conf.Prefix,
			Region:     region,
			MaxRetries: utility.ToIntPtr(s3MaxRetries),
		}
		if conf.AWSKey != "" {
			opts.Credentials = pail.CreateAWSStaticCredentials(conf.AWSKey, conf.AWSSecret, "")
		}
		b, err = pail.NewS3Bucket(ctx, opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	case BucketLocal:
		opts := pail.LocalOptions{
			Path:   conf.Name,
			Prefix: conf.Prefix,
		}
		b, err = pail.NewLocalBucket(opts)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	default:
		return nil, errors.Errorf("bucket type '%s' is not implemented", t)
	}

	if err = b.Check(ctx); err != nil {
		return nil, errors.Wrapf(err, "problem checking %s bucket '%s'", t, conf.Name)
	}
	return b, nil
}
