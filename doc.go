// Package objstore is a data-plane client for S3-compatible object storage
// with exact billing accounting.
//
// Every operation reports a billing.OperationResult: the number of Class A
// (write-like) and Class B (read-like) calls it attempted and the bytes it
// moved in each direction. The accounting is attempt-based (a call that
// fails was still issued and still billed) and failed operations carry
// their partial footprint on the returned error, extractable with
// errors.Metrics.
//
// Uploads pick their protocol by size: payloads under 50 MiB go up in a
// single PUT, larger ones through the multipart protocol with automatic
// abort on failure. Bulk deletes batch up to 1000 keys per request, and
// ClearBucket alternates listing with bulk deletion until a bucket is
// empty. Presigned URLs let uncredentialed parties upload directly.
//
// Basic usage:
//
//	client, err := objstore.New(
//	    objstore.WithAccount("acme"),
//	    objstore.WithStaticCredentials(accessKey, secretKey),
//	)
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.UploadFile(ctx, "backups", "db/dump.sql.gz", "/tmp/dump.sql.gz")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d class A calls, %d bytes ingress\n",
//	    result.Metrics.ClassA, result.Metrics.IngressBytes)
//
// Multi-tenant services use a Factory to hold one client per account and
// jurisdiction:
//
//	factory := objstore.NewFactory(objstore.WithMaxRetries(3))
//	client, err := factory.Client("acme", "eu")
//
// Wire a billing.Collector to export the accounting as Prometheus counters.
package objstore
