//go:build e2e

package e2e

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// influxReader reads back the points written by the influx metrics sink.
type influxReader struct {
	org    string
	bucket string
	client influxdb2.Client
	query  api.QueryAPI
}

func newInfluxReader(url, org, bucket, token string) *influxReader {
	c := influxdb2.NewClient(url, token)
	return &influxReader{org: org, bucket: bucket, client: c, query: c.QueryAPI(org)}
}

// ensureBucket creates the organisation and bucket when the container was
// started without them.
func (r *influxReader) ensureBucket(ctx context.Context) error {
	orgs := r.client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, r.org)
	if err != nil || org == nil {
		if org, err = orgs.CreateOrganizationWithName(ctx, r.org); err != nil {
			return fmt.Errorf("create org %s: %w", r.org, err)
		}
	}
	buckets := r.client.BucketsAPI()
	if b, err := buckets.FindBucketByName(ctx, r.bucket); err == nil && b != nil {
		return nil
	}
	if _, err := buckets.CreateBucketWithName(ctx, org, r.bucket); err != nil {
		return fmt.Errorf("create bucket %s: %w", r.bucket, err)
	}
	return nil
}

// countPoints returns how many values of field were written to measurement
// for the run within the last hour.
func (r *influxReader) countPoints(ctx context.Context, measurement, field, runID string) (int, error) {
	flux := fmt.Sprintf(`from(bucket:%q)
  |> range(start: -1h)
  |> filter(fn: (r) => r._measurement == %q and r._field == %q and r.run_id == %q)`,
		r.bucket, measurement, field, runID)
	res, err := r.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	n := 0
	for res.Next() {
		n++
	}
	return n, res.Err()
}

func (r *influxReader) Close() { r.client.Close() }
