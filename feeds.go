// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package cloudant

// Feed identifies which changes-feed endpoint a set of query options
// targets. Any value other than FeedCloudant or FeedCouchDB selects the
// per-database document-changes table.
type Feed string

// Recognized feed kinds.
const (
	// FeedCloudant is the database-updates feed of a Cloudant cluster.
	FeedCloudant Feed = "Cloudant"
	// FeedCouchDB is the global _db_updates feed of a CouchDB server.
	FeedCouchDB Feed = "CouchDB"
	// FeedChanges is the document-changes feed of a single database.
	FeedChanges Feed = "Changes"
)

// couchDBUpdatesArgKinds covers the global _db_updates feed. Note that
// heartbeat is boolean here; the database-updates feed overrides it to
// an integer interval.
var couchDBUpdatesArgKinds = map[string]KindSet{
	"feed":      kinds(KindString),
	"heartbeat": kinds(KindBoolean),
	"timeout":   kinds(KindInteger, KindNull),
}

// dbUpdatesArgKinds covers the Cloudant database-updates feed: a strict
// superset of the CouchDB table by key.
var dbUpdatesArgKinds = mergeKinds(couchDBUpdatesArgKinds, map[string]KindSet{
	"descending": kinds(KindBoolean),
	"heartbeat":  kinds(KindInteger, KindNull),
	"limit":      kinds(KindInteger, KindNull),
	"since":      kinds(KindInteger, KindString),
})

// changesArgKinds covers the per-database document-changes feed, which
// accepts everything the database-updates feed does plus the
// document-level options.
var changesArgKinds = mergeKinds(dbUpdatesArgKinds, map[string]KindSet{
	"conflicts":    kinds(KindBoolean),
	"doc_ids":      kinds(KindSequence),
	"filter":       kinds(KindString),
	"include_docs": kinds(KindBoolean),
	"style":        kinds(KindString),
})

func mergeKinds(tables ...map[string]KindSet) map[string]KindSet {
	merged := map[string]KindSet{}
	for _, table := range tables {
		for key, set := range table {
			merged[key] = set
		}
	}
	return merged
}

// FeedArgKinds returns the option table appropriate to the feed kind.
// Callers must treat the returned table as read-only.
func FeedArgKinds(feed Feed) map[string]KindSet {
	switch feed {
	case FeedCloudant:
		return dbUpdatesArgKinds
	case FeedCouchDB:
		return couchDBUpdatesArgKinds
	}
	return changesArgKinds
}

// ValidateFeedOption checks a single feed query option name and value
// against the table for the given feed kind.
func ValidateFeedOption(feed Feed, key string, value interface{}) error {
	return validateWith(FeedArgKinds(feed), key, deref(value))
}
