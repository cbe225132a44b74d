package carbonate

import "math"

// Constants holds the equilibrium constants and total concentrations for one
// temperature/salinity pair. Concentrations are mol/kg-sw and the acid-base
// constants are on the Total pH scale unless the field says otherwise.
type Constants struct {
	TempK float64

	K0 float64 // CO2 solubility, mol/kg/atm
	K1 float64
	K2 float64
	KB float64
	KW float64
	KS float64 // free scale
	KF float64 // free scale

	KspAragonite float64
	KspCalcite   float64

	TotalBorate   float64
	TotalSulfate  float64
	TotalFluoride float64
	Calcium       float64

	FreeToTotal float64
	SWSToTotal  float64
}

// NewConstants evaluates the constant set used by a CO2SYS run with Lueker
// et al. (2000) carbonic acid constants at zero applied pressure.
func NewConstants(tempC, sal float64) *Constants {
	tk := tempC + 273.15
	lnT := math.Log(tk)
	sqrS := math.Sqrt(sal)
	ionS := 19.924 * sal / (1000 - 1.005*sal)
	sqrIon := math.Sqrt(ionS)
	toMolal := 1 - 0.001005*sal

	c := &Constants{TempK: tk}

	// Totals scale with chlorinity (S/1.80655).
	chl := sal / 1.80655
	c.TotalBorate = 0.0004157 * sal / 35 // Uppström (1974)
	c.TotalSulfate = (0.14 / 96.062) * chl
	c.TotalFluoride = (0.000067 / 18.998) * chl
	c.Calcium = 0.02128 / 40.087 * chl

	// KS, Dickson (1990a).
	lnKS := -4276.1/tk + 141.328 - 23.093*lnT +
		(-13856/tk+324.57-47.986*lnT)*sqrIon +
		(35474/tk-771.54+114.723*lnT)*ionS -
		2698/tk*math.Pow(ionS, 1.5) + 1776/tk*ionS*ionS
	c.KS = math.Exp(lnKS) * toMolal

	// KF, Dickson & Riley (1979).
	c.KF = math.Exp(1590.2/tk-12.641+1.525*sqrIon) * toMolal

	c.FreeToTotal = 1 + c.TotalSulfate/c.KS
	c.SWSToTotal = c.FreeToTotal / (1 + c.TotalSulfate/c.KS + c.TotalFluoride/c.KF)

	// KB, Dickson (1990b), already on the Total scale.
	lnKB := (-8966.9-2890.53*sqrS-77.942*sal+1.728*sal*sqrS-0.0996*sal*sal)/tk +
		148.0248 + 137.1942*sqrS + 1.62142*sal +
		(-24.4344-25.085*sqrS-0.2474*sal)*lnT +
		0.053105*sqrS*tk
	c.KB = math.Exp(lnKB)

	// KW, Millero (1995), seawater scale.
	lnKW := 148.9802 - 13847.26/tk - 23.6521*lnT +
		(-5.977+118.67/tk+1.0495*lnT)*sqrS - 0.01615*sal
	c.KW = math.Exp(lnKW) * c.SWSToTotal

	// K1, K2, Lueker et al. (2000).
	pK1 := 3633.86/tk - 61.2172 + 9.6777*lnT - 0.011555*sal + 0.0001152*sal*sal
	pK2 := 471.78/tk + 25.929 - 3.16967*lnT - 0.01781*sal + 0.0001122*sal*sal
	c.K1 = math.Pow(10, -pK1)
	c.K2 = math.Pow(10, -pK2)

	// K0, Weiss (1974).
	t100 := tk / 100
	lnK0 := -60.2409 + 93.4517/t100 + 23.3585*math.Log(t100) +
		sal*(0.023517-0.023656*t100+0.0047036*t100*t100)
	c.K0 = math.Exp(lnK0)

	// Solubility products, Mucci (1983).
	log10T := math.Log10(tk)
	logKspA := -171.945 - 0.077993*tk + 2903.293/tk + 71.595*log10T +
		(-0.068393+0.0017276*tk+88.135/tk)*sqrS -
		0.10018*sal + 0.0059415*sal*sqrS
	logKspC := -171.9065 - 0.077993*tk + 2839.319/tk + 71.595*log10T +
		(-0.77712+0.0028426*tk+178.34/tk)*sqrS -
		0.07711*sal + 0.0041249*sal*sqrS
	c.KspAragonite = math.Pow(10, logKspA)
	c.KspCalcite = math.Pow(10, logKspC)

	return c
}

// FugacityFactor converts pCO2 to fCO2 at one atmosphere (Weiss 1974).
func (c *Constants) FugacityFactor() float64 {
	tk := c.TempK
	delta := 57.7 - 0.118*tk
	b := -1636.75 + 12.0408*tk - 0.0327957*tk*tk + 3.16528e-5*tk*tk*tk
	const (
		p1atm       = 1.01325     // bar
		gasConstant = 83.14462618 // cm³ bar / (K mol)
	)
	return math.Exp((b + 2*delta) * p1atm / (gasConstant * tk))
}
