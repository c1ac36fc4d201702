// Copyright 2026 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package config

import (
	"github.com/mendersoftware/go-lib-micro/config"
)

const (
	// SettingListen is the config key for the listen address
	SettingListen = "listen"
	// SettingListenDefault is the default value for the listen address
	SettingListenDefault = ":8080"

	// SettingStoreDriver is the config key for the data store backend
	SettingStoreDriver = "store_driver"
	// SettingStoreDriverDefault is the default data store backend
	SettingStoreDriverDefault = StoreDriverMongo

	// SettingNatsURI is the config key for the nats uri; an empty value
	// disables status events and the heartbeat subscription
	SettingNatsURI = "nats_uri"
	// SettingNatsURIDefault is the default value for the nats uri
	SettingNatsURIDefault = "nats://localhost:4222"

	// SettingMongo is the config key for the mongo URL
	SettingMongo = "mongo_url"
	// SettingMongoDefault is the default value for the mongo URL
	SettingMongoDefault = "mongodb://edgeconnect-mongo:27017"

	// SettingDbName is the config key for the mongo database name
	SettingDbName = "mongo_dbname"
	// SettingDbNameDefault is the default value for the mongo database name
	SettingDbNameDefault = "edgeconnect"

	// SettingDbSSL is the config key for the mongo SSL setting
	SettingDbSSL = "mongo_ssl"
	// SettingDbSSLDefault is the default value for the mongo SSL setting
	SettingDbSSLDefault = false

	// SettingDbSSLSkipVerify is the config key for the mongo SSL skip verify setting
	SettingDbSSLSkipVerify = "mongo_ssl_skipverify"
	// SettingDbSSLSkipVerifyDefault is the default value for the mongo SSL skip verify setting
	SettingDbSSLSkipVerifyDefault = false

	// SettingDbUsername is the config key for the mongo username
	SettingDbUsername = "mongo_username"

	// SettingDbPassword is the config key for the mongo password
	SettingDbPassword = "mongo_password"

	// SettingSQLitePath is the config key for the sqlite database file
	SettingSQLitePath = "sqlite_path"
	// SettingSQLitePathDefault is the default sqlite database file
	SettingSQLitePathDefault = "/var/lib/edgeconnect/edgeconnect.db"

	// SettingDebugLog is the config key for the turning on the debug log
	SettingDebugLog = "debug_log"
	// SettingDebugLogDefault is the default value for the debug log enabling
	SettingDebugLogDefault = false

	// SettingWorkflowsURL is the config key for the workflows url
	SettingWorkflowsURL = "workflows_url"
	// SettingWorkflowsURLDefault is the default value for the workflows url
	SettingWorkflowsURLDefault = "http://edgeconnect-workflows-server:8080"

	// SettingEnableAudit is the config key for submitting audit logs
	// for device status transitions
	SettingEnableAudit = "enable_audit"
	// SettingEnableAuditDefault is the default value for audit logs
	SettingEnableAuditDefault = false

	// SettingEnableScheduler is the config key for running the periodic
	// jobs inside the server process
	SettingEnableScheduler = "enable_scheduler"
	// SettingEnableSchedulerDefault is the default value for the scheduler
	SettingEnableSchedulerDefault = true

	// SettingCheckOfflineThreshold is the number of seconds without a
	// heartbeat before a supervised device is marked offline
	SettingCheckOfflineThreshold = "check_offline_threshold"
	// SettingCheckOfflineThresholdDefault is the default threshold
	SettingCheckOfflineThresholdDefault = 120

	// SettingCheckOfflineInterval is the number of seconds between two
	// scheduled check-offline runs
	SettingCheckOfflineInterval = "check_offline_interval"
	// SettingCheckOfflineIntervalDefault is the default interval
	SettingCheckOfflineIntervalDefault = 60

	// SettingCheckOfflineBatchSize is the page size of the candidate queries
	SettingCheckOfflineBatchSize = "check_offline_batch_size"
	// SettingCheckOfflineBatchSizeDefault is the default page size
	SettingCheckOfflineBatchSizeDefault = 500

	// SettingCheckOfflineWorkers is the number of concurrent transitions
	SettingCheckOfflineWorkers = "check_offline_workers"
	// SettingCheckOfflineWorkersDefault is the default number of workers
	SettingCheckOfflineWorkersDefault = 4

	// SettingCheckOfflineLockTTL is the number of seconds after which a
	// job lock held by a crashed run expires
	SettingCheckOfflineLockTTL = "check_offline_lock_ttl"
	// SettingCheckOfflineLockTTLDefault is the default lock expiry
	SettingCheckOfflineLockTTLDefault = 600
)

// Values for the store_driver setting
const (
	StoreDriverMongo  = "mongo"
	StoreDriverSQLite = "sqlite"
)

var (
	// Defaults are the default configuration settings
	Defaults = []config.Default{
		{Key: SettingListen, Value: SettingListenDefault},
		{Key: SettingStoreDriver, Value: SettingStoreDriverDefault},
		{Key: SettingNatsURI, Value: SettingNatsURIDefault},
		{Key: SettingMongo, Value: SettingMongoDefault},
		{Key: SettingDbName, Value: SettingDbNameDefault},
		{Key: SettingDbSSL, Value: SettingDbSSLDefault},
		{Key: SettingDbSSLSkipVerify, Value: SettingDbSSLSkipVerifyDefault},
		{Key: SettingSQLitePath, Value: SettingSQLitePathDefault},
		{Key: SettingDebugLog, Value: SettingDebugLogDefault},
		{Key: SettingWorkflowsURL, Value: SettingWorkflowsURLDefault},
		{Key: SettingEnableAudit, Value: SettingEnableAuditDefault},
		{Key: SettingEnableScheduler, Value: SettingEnableSchedulerDefault},
		{Key: SettingCheckOfflineThreshold, Value: SettingCheckOfflineThresholdDefault},
		{Key: SettingCheckOfflineInterval, Value: SettingCheckOfflineIntervalDefault},
		{Key: SettingCheckOfflineBatchSize, Value: SettingCheckOfflineBatchSizeDefault},
		{Key: SettingCheckOfflineWorkers, Value: SettingCheckOfflineWorkersDefault},
		{Key: SettingCheckOfflineLockTTL, Value: SettingCheckOfflineLockTTLDefault},
	}
)
