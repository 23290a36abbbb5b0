package tdb

import "strings"

// SatelliteTable names a table exposed per MSID by ChannelView.
// The master table is included since it is filtered the same way.
type SatelliteTable string

const (
	Tmsrment SatelliteTable = "tmsrment" // MSID definitions (master)
	Tpc      SatelliteTable = "tpc"      // polynomial calibration
	Tsc      SatelliteTable = "tsc"      // state codes
	Tpp      SatelliteTable = "tpp"      // point pair calibration
	Tlmt     SatelliteTable = "tlmt"     // limits
	Tcntr    SatelliteTable = "tcntr"    // counters
	Tsmpl    SatelliteTable = "tsmpl"    // sample rates
	Tloc     SatelliteTable = "tloc"     // location in telemetry
)

// SatelliteTables lists every per-MSID table.
var SatelliteTables = []SatelliteTable{Tmsrment, Tpc, Tsc, Tpp, Tlmt, Tcntr, Tsmpl, Tloc}

// ParseSatelliteTable maps a case-insensitive name to its table.
func ParseSatelliteTable(name string) (SatelliteTable, error) {
	name = strings.ToLower(name)
	for _, t := range SatelliteTables {
		if string(t) == name {
			return t, nil
		}
	}
	return "", &ColumnNotFoundError{Table: "msids", Column: name}
}

// MasterColumn names a column of the master table.
type MasterColumn string

const (
	ColMSID                     MasterColumn = "MSID"
	ColTechnicalName            MasterColumn = "TECHNICAL_NAME"
	ColDataType                 MasterColumn = "DATA_TYPE"
	ColCalibrationType          MasterColumn = "CALIBRATION_TYPE"
	ColEngUnit                  MasterColumn = "ENG_UNIT"
	ColLowRawCount              MasterColumn = "LOW_RAW_COUNT"
	ColHighRawCount             MasterColumn = "HIGH_RAW_COUNT"
	ColTotalLength              MasterColumn = "TOTAL_LENGTH"
	ColProp                     MasterColumn = "PROP"
	ColCounterMSID              MasterColumn = "COUNTER_MSID"
	ColRangeMSID                MasterColumn = "RANGE_MSID"
	ColCalibrationSwitchMSID    MasterColumn = "CALIBRATION_SWITCH_MSID"
	ColCalibrationDefaultSetNum MasterColumn = "CALIBRATION_DEFAULT_SET_NUM"
	ColLimitSwitchMSID          MasterColumn = "LIMIT_SWITCH_MSID"
	ColLimitDefaultSetNum       MasterColumn = "LIMIT_DEFAULT_SET_NUM"
	ColESSwitchMSID             MasterColumn = "ES_SWITCH_MSID"
	ColESDefaultSetNum          MasterColumn = "ES_DEFAULT_SET_NUM"
	ColOwnerID                  MasterColumn = "OWNER_ID"
	ColDescription              MasterColumn = "DESCRIPTION"
	ColEHSHeaderFlag            MasterColumn = "EHS_HEADER_FLAG"
)

// MasterColumns lists the master table columns in schema order.
var MasterColumns = []MasterColumn{
	ColMSID, ColTechnicalName, ColDataType, ColCalibrationType, ColEngUnit,
	ColLowRawCount, ColHighRawCount, ColTotalLength, ColProp, ColCounterMSID,
	ColRangeMSID, ColCalibrationSwitchMSID, ColCalibrationDefaultSetNum,
	ColLimitSwitchMSID, ColLimitDefaultSetNum, ColESSwitchMSID, ColESDefaultSetNum,
	ColOwnerID, ColDescription, ColEHSHeaderFlag,
}

// ParseMasterColumn maps a case-insensitive name to its master column.
func ParseMasterColumn(name string) (MasterColumn, error) {
	name = strings.ToUpper(name)
	for _, c := range MasterColumns {
		if string(c) == name {
			return c, nil
		}
	}
	return "", &ColumnNotFoundError{Table: string(Tmsrment), Column: name}
}
